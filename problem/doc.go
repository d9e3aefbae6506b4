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

// Package problem renders handler errors as HTTP responses.
//
// Two formats are provided. [RFC9457] writes application/problem+json
// documents and [Simple] writes {"error": ..., "code": ...} objects. Errors
// steer the output by implementing [StatusCoder], [Coder] or [Detailer], or
// by being wrapped with [WithStatus] and [WithCode]:
//
//	err := problem.WithCode(problem.WithStatus(err, http.StatusBadRequest), "INVALID_COUNT")
//	problem.Write(c.Response, c.Request, problem.NewRFC9457(""), err)
//
// When the request carries an ID from the requestid middleware it is used as
// the RFC 9457 error_id, so a client report can be matched to the access log.
package problem
