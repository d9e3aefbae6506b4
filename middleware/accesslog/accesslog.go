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

package accesslog

import (
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/middleware/requestid"
)

// statusSizer is implemented by writers that already track status and size,
// such as the router's own writer.
type statusSizer interface {
	StatusCode() int
	Size() int64
}

// New returns a middleware that logs one "http request" record per request.
//
// Registered before the compression middleware, bytes_sent and
// content_encoding describe what went over the wire.
//
//	r.Use(accesslog.New(
//	    accesslog.WithLogger(logger),
//	    accesslog.WithExcludePaths("/metrics"),
//	    accesslog.WithSlowThreshold(500*time.Millisecond),
//	))
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		path := c.Request.URL.Path
		if cfg.logger == nil || cfg.exclude(path) {
			c.Next()
			return
		}

		start := time.Now()

		ss, ok := c.Response.(statusSizer)
		if !ok {
			rw := &responseWriter{ResponseWriter: c.Response}
			c.Response = rw
			ss = rw
			defer func() { c.Response = rw.ResponseWriter }()
		}

		c.Next()

		duration := time.Since(start)
		status := ss.StatusCode()
		ctx := c.Request.Context()
		id := requestid.FromContext(ctx)

		isError := status >= http.StatusBadRequest
		isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold
		if !isError && !isSlow {
			if cfg.errorsOnly || !sampleByHash(id, cfg.sampleRate) {
				return
			}
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.Int64("bytes_sent", ss.Size()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.String("client_ip", c.ClientIP()),
			slog.String("host", c.Request.Host),
			slog.String("proto", c.Request.Proto),
		}
		if route := c.RoutePattern(); route != "" {
			attrs = append(attrs, slog.String("route", route))
		}
		if id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if enc := c.Response.Header().Get("Content-Encoding"); enc != "" {
			attrs = append(attrs, slog.String("content_encoding", enc))
		}
		if isSlow {
			attrs = append(attrs, slog.Bool("slow", true))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case isError, isSlow:
			level = slog.LevelWarn
		}

		cfg.logger.LogAttrs(ctx, level, "http request", attrs...)
	}
}

func (cfg *config) exclude(path string) bool {
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

// sampleByHash maps id onto [0, 1] and keeps it when it falls under rate.
// Requests without an ID are always kept.
func sampleByHash(id string, rate float64) bool {
	if rate >= 1 || id == "" {
		return true
	}
	if rate <= 0 {
		return false
	}

	h := sha256.Sum256([]byte(id))
	threshold := uint64(rate * float64(^uint64(0)))

	return binary.BigEndian.Uint64(h[:8]) <= threshold
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Written() bool {
	return rw.status != 0
}

func (rw *responseWriter) StatusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}

	return rw.status
}

func (rw *responseWriter) Size() int64 {
	return rw.size
}
