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

// Package recovery turns handler panics into 500 responses.
//
// The panic value, request method, path and request ID are logged as one
// "panic recovered" record. The stack is either logged as a "stack trace"
// record with a "frames" list or, on a terminal, printed in color to stderr.
// An active span is marked with exception.escaped, exception.type and
// exception.message.
//
//	r.Use(
//	    requestid.New(),
//	    accesslog.New(accesslog.WithLogger(logger)),
//	    recovery.New(recovery.WithLogger(logger)),
//	    compression.New(),
//	)
package recovery
