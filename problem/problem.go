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
	"strconv"
)

// Formatter turns an error into a response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response is a formatted error ready to be written.
type Response struct {
	Status      int
	ContentType string
	Body        any
}

// StatusCoder is implemented by errors that choose their HTTP status.
type StatusCoder interface {
	error
	HTTPStatus() int
}

// Coder is implemented by errors carrying a machine-readable code.
type Coder interface {
	error
	Code() string
}

// Detailer is implemented by errors exposing structured details.
type Detailer interface {
	error
	Details() any
}

// WithStatus wraps err with an explicit HTTP status. A nil err reads as the
// status text.
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// WithCode wraps err with a machine-readable code.
func WithCode(err error, code string) error {
	return &codeError{err: err, code: code}
}

type codeError struct {
	err  error
	code string
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.code
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }
func (e *codeError) Code() string  { return e.code }

// Status reports the HTTP status of err: the first [StatusCoder] in its
// chain, or 500.
func Status(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// Write formats err with f and writes it to w with an explicit
// Content-Length.
func Write(w http.ResponseWriter, req *http.Request, f Formatter, err error) error {
	resp := f.Format(req, err)

	body, mErr := json.Marshal(resp.Body)
	if mErr != nil {
		return mErr
	}

	h := w.Header()
	h.Set("Content-Type", resp.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)
	_, wErr := w.Write(body)

	return wErr
}
