// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package accesslog writes one structured "http request" record per request.
//
// Each record carries method, path, status, duration_ms, bytes_sent,
// user_agent, client_ip, host and proto, plus route, request_id and
// content_encoding when known. Server errors are logged at error level,
// client errors and slow requests at warn, everything else at info.
//
// Successful requests can be sampled with [WithSampleRate]; the decision
// hashes the request ID from the requestid middleware, so register that
// first:
//
//	r.Use(
//	    requestid.New(),
//	    accesslog.New(
//	        accesslog.WithLogger(logger),
//	        accesslog.WithExcludePaths("/metrics"),
//	        accesslog.WithSampleRate(0.1),
//	    ),
//	)
package accesslog
