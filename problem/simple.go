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

package problem

import (
	"errors"
	"net/http"
)

// Simple formats errors as {"error": message, "code": code, "details": ...}.
type Simple struct {
	// Message replaces err.Error() in the body when set, for errors whose
	// text must not reach the client.
	Message string
}

// NewSimple returns a plain JSON formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// Format implements [Formatter].
func (f *Simple) Format(_ *http.Request, err error) Response {
	msg := f.Message
	if msg == "" {
		msg = err.Error()
	}

	body := map[string]any{"error": msg}

	var coded Coder
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}

	var detailed Detailer
	if errors.As(err, &detailed) {
		body["details"] = detailed.Details()
	}

	return Response{
		Status:      Status(err),
		ContentType: "application/json; charset=utf-8",
		Body:        body,
	}
}
