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

package metrics

import (
	"net/http"
	"strings"
	"time"

	"rivaas.dev/router"
)

// MiddlewareOption configures [Recorder.Middleware].
type MiddlewareOption func(*pathFilter)

// WithExcludePaths skips requests whose path equals one of paths, typically
// the scrape endpoint itself.
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(pf *pathFilter) {
		for _, p := range paths {
			pf.paths[p] = struct{}{}
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(pf *pathFilter) {
		pf.prefixes = append(pf.prefixes, prefixes...)
	}
}

type pathFilter struct {
	paths    map[string]struct{}
	prefixes []string
}

func (pf *pathFilter) shouldExclude(path string) bool {
	if _, ok := pf.paths[path]; ok {
		return true
	}
	for _, prefix := range pf.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// Middleware returns router middleware recording request count and duration.
// Register it before the compression middleware so the recorded status is
// the one sent to the client.
func (r *Recorder) Middleware(opts ...MiddlewareOption) router.HandlerFunc {
	pf := &pathFilter{paths: make(map[string]struct{})}
	for _, opt := range opts {
		opt(pf)
	}

	return func(c *router.Context) {
		if pf.shouldExclude(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: c.Response}
		c.Response = sw

		defer func() {
			c.Response = sw.ResponseWriter
			r.RecordRequest(c.Request.Context(), c.Request.Method, sw.Status(), time.Since(start))
		}()

		c.Next()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Written reports whether the response has started.
func (sw *statusWriter) Written() bool {
	return sw.status != 0
}

// Status returns the written status, 200 when the handler wrote nothing.
func (sw *statusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}

	return sw.status
}
