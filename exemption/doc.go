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

// Package exemption marks responses that the compression middleware must
// leave alone.
//
// A request is handled only when it sends a non-blank Accept-Encoding. It is
// exempt when its URI contains one of the configured path substrings
// ([DefaultPaths]: /swagger, /info and /lineupdashboardservice) or when it
// carries the Ignore-Encoding header. Exempt responses get
// "Ignore-Encoding: true", which [compression.Policy] treats as an
// unconditional skip.
//
//	r := router.MustNew()
//	r.Use(
//	    compression.New(),
//	    exemption.New(exemption.WithAdditionalPaths("/healthz")),
//	)
package exemption
