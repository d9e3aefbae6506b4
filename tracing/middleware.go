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

package tracing

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"rivaas.dev/router"
)

const attrPrefixHeader = "http.request.header."

// MiddlewareOption configures [Tracer.Middleware].
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	excludePaths    map[string]bool
	excludePrefixes []string
	headers         []string
}

// WithExcludePaths skips span creation for exact paths.
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		for _, p := range paths {
			cfg.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips span creation for path prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.excludePrefixes = append(cfg.excludePrefixes, prefixes...)
	}
}

// WithHeaders records the given request headers as
// http.request.header.<name> attributes.
func WithHeaders(headers ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		for _, h := range headers {
			cfg.headers = append(cfg.headers, http.CanonicalHeaderKey(h))
		}
	}
}

func (cfg *middlewareConfig) exclude(path string) bool {
	if cfg.excludePaths[path] {
		return true
	}
	for _, prefix := range cfg.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// Middleware starts a server span per request, continuing a remote trace
// carried in traceparent. The span context is stored in c.Request so that
// later handlers and log records see it. The response encoding chosen by the
// compression middleware is recorded as http.response.content_encoding.
func (t *Tracer) Middleware(opts ...MiddlewareOption) router.HandlerFunc {
	cfg := &middlewareConfig{excludePaths: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		req := c.Request
		if cfg.exclude(req.URL.Path) {
			c.Next()
			return
		}

		route := c.RoutePattern()
		if route == "" {
			route = req.URL.Path
		}

		ctx := t.Extract(req.Context(), req.Header)
		ctx, span := t.tracer.Start(ctx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.HTTPRoute(route),
				semconv.URLPath(req.URL.Path),
				semconv.ServerAddress(req.Host),
				semconv.UserAgentOriginal(req.UserAgent()),
			),
		)
		defer span.End()

		for _, h := range cfg.headers {
			if v := req.Header.Get(h); v != "" {
				span.SetAttributes(attribute.String(attrPrefixHeader+strings.ToLower(h), v))
			}
		}

		sw := &statusWriter{ResponseWriter: c.Response}
		c.Response = sw
		c.Request = req.WithContext(ctx)
		defer func() { c.Response = sw.ResponseWriter }()

		c.Next()

		status := sw.Status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if enc := sw.Header().Get("Content-Encoding"); enc != "" {
			span.SetAttributes(attribute.String("http.response.content_encoding", enc))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
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

func (sw *statusWriter) Written() bool {
	return sw.status != 0
}

func (sw *statusWriter) Status() int {
	if sw.status == 0 {
		return http.StatusOK
	}

	return sw.status
}
