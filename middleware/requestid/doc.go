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

// Package requestid assigns every request an ID for log correlation.
//
// The ID is taken from the X-Request-ID header when the client sends one of
// at most 128 bytes, and generated otherwise. It is echoed in the response
// header and stored in the request context, where the access log picks it
// up:
//
//	r.Use(requestid.New())
//	id := requestid.FromContext(ctx)
//
// UUIDv7 is the default format; [WithULID] switches to 26 character ULIDs.
package requestid
