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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lineup-dev/smartcompress/middleware/requestid"
)

// ContentTypeProblem is the media type of RFC 9457 documents.
const ContentTypeProblem = "application/problem+json; charset=utf-8"

// RFC9457 formats errors as RFC 9457 problem details.
type RFC9457 struct {
	// BaseURL prefixes error codes to form the problem type URI. Without a
	// code the type is about:blank.
	BaseURL string

	// ErrorID returns the error_id extension. Nil uses the request ID, or a
	// fresh UUIDv7 when the request has none.
	ErrorID func(req *http.Request) string

	// DisableErrorID omits error_id.
	DisableErrorID bool
}

// NewRFC9457 returns a problem details formatter.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// Detail is an RFC 9457 problem document. Extensions are written inline;
// they cannot shadow the standard members.
type Detail struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

// MarshalJSON implements json.Marshaler.
func (p Detail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 5+len(p.Extensions))
	for k, v := range p.Extensions {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	} else {
		delete(m, "detail")
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	} else {
		delete(m, "instance")
	}

	return json.Marshal(m)
}

// Format implements [Formatter].
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := Status(err)

	p := Detail{
		Type:       "about:blank",
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Instance:   req.URL.Path,
		Extensions: make(map[string]any),
	}

	var coded Coder
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
		if f.BaseURL != "" {
			p.Type = f.BaseURL + "/" + coded.Code()
		}
	}

	var detailed Detailer
	if errors.As(err, &detailed) {
		p.Extensions["errors"] = detailed.Details()
	}

	if !f.DisableErrorID {
		p.Extensions["error_id"] = f.errorID(req)
	}

	return Response{Status: status, ContentType: ContentTypeProblem, Body: p}
}

func (f *RFC9457) errorID(req *http.Request) string {
	if f.ErrorID != nil {
		return f.ErrorID(req)
	}
	if id := requestid.FromContext(req.Context()); id != "" {
		return id
	}
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	return uuid.NewString()
}
