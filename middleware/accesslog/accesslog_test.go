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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/compression"
	"github.com/lineup-dev/smartcompress/middleware/requestid"
)

// testHandler captures log records.
type testHandler struct {
	mu      sync.Mutex
	records []testRecord
}

type testRecord struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

func (h *testHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.records = append(h.records, testRecord{level: r.Level, msg: r.Message, attrs: attrs})

	return nil
}

func (h *testHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *testHandler) WithGroup(string) slog.Handler      { return h }

func (h *testHandler) all() []testRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]testRecord(nil), h.records...)
}

func newRouter(h *testHandler, opts ...Option) *router.Router {
	r := router.MustNew()
	r.Use(requestid.New(), New(append([]Option{WithLogger(slog.New(h))}, opts...)...))

	r.GET("/api/data", func(c *router.Context) {
		//nolint:errcheck // test handler
		c.JSON(http.StatusOK, map[string]string{"message": "ok"})
	})
	r.GET("/api/missing", func(c *router.Context) {
		//nolint:errcheck // test handler
		c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.GET("/api/fail", func(c *router.Context) {
		//nolint:errcheck // test handler
		c.JSON(http.StatusInternalServerError, map[string]string{"error": "fail"})
	})
	r.GET("/api/slow", func(c *router.Context) {
		time.Sleep(20 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", func(c *router.Context) { c.Status(http.StatusOK) })
	r.GET("/swagger/index.html", func(c *router.Context) { c.Status(http.StatusOK) })

	return r
}

func do(r *router.Router, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "accesslog-test")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAccessLog_Fields(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	w := do(newRouter(h), "/api/data", requestid.DefaultHeader, "req-1")

	records := h.all()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "http request", rec.msg)
	assert.Equal(t, slog.LevelInfo, rec.level)
	assert.Equal(t, "GET", rec.attrs["method"])
	assert.Equal(t, "/api/data", rec.attrs["path"])
	assert.Equal(t, int64(http.StatusOK), rec.attrs["status"])
	assert.Equal(t, int64(w.Body.Len()), rec.attrs["bytes_sent"])
	assert.Equal(t, "accesslog-test", rec.attrs["user_agent"])
	assert.Equal(t, "example.com", rec.attrs["host"])
	assert.Equal(t, "HTTP/1.1", rec.attrs["proto"])
	assert.Equal(t, "req-1", rec.attrs["request_id"])
	assert.Contains(t, rec.attrs, "duration_ms")
	assert.Contains(t, rec.attrs, "client_ip")
	assert.NotContains(t, rec.attrs, "content_encoding")
	assert.NotContains(t, rec.attrs, "slow")
}

func TestAccessLog_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		status int64
		level  slog.Level
	}{
		{path: "/api/data", status: http.StatusOK, level: slog.LevelInfo},
		{path: "/api/missing", status: http.StatusNotFound, level: slog.LevelWarn},
		{path: "/api/fail", status: http.StatusInternalServerError, level: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			h := &testHandler{}
			do(newRouter(h), tt.path)

			records := h.all()
			require.Len(t, records, 1)
			assert.Equal(t, tt.level, records[0].level)
			assert.Equal(t, tt.status, records[0].attrs["status"])
		})
	}
}

func TestAccessLog_Exclusions(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	r := newRouter(h, WithExcludePaths("/metrics"), WithExcludePrefixes("/swagger"))

	do(r, "/metrics")
	do(r, "/swagger/index.html")
	assert.Empty(t, h.all())

	do(r, "/api/data")
	assert.Len(t, h.all(), 1)
}

func TestAccessLog_SlowRequest(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	do(newRouter(h, WithSlowThreshold(10*time.Millisecond), WithErrorsOnly()), "/api/slow")

	records := h.all()
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelWarn, records[0].level)
	assert.Equal(t, true, records[0].attrs["slow"])
}

func TestAccessLog_ErrorsOnly(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	r := newRouter(h, WithErrorsOnly())

	do(r, "/api/data")
	assert.Empty(t, h.all())

	do(r, "/api/missing")
	assert.Len(t, h.all(), 1)
}

func TestAccessLog_Sampling(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	r := newRouter(h, WithSampleRate(0.5))

	const total = 200
	kept := 0
	for i := range total {
		id := fmt.Sprintf("req-%d", i)
		do(r, "/api/data", requestid.DefaultHeader, id)
		if sampleByHash(id, 0.5) {
			kept++
		}
	}

	assert.Len(t, h.all(), kept)
	assert.Greater(t, kept, 0)
	assert.Less(t, kept, total)

	do(r, "/api/fail", requestid.DefaultHeader, "req-error")
	records := h.all()
	assert.Equal(t, "/api/fail", records[len(records)-1].attrs["path"])
}

func TestSampleByHash(t *testing.T) {
	t.Parallel()

	assert.True(t, sampleByHash("", 0.01))
	assert.True(t, sampleByHash("abc", 1))
	assert.False(t, sampleByHash("abc", 0))
	assert.Equal(t, sampleByHash("abc", 0.3), sampleByHash("abc", 0.3))
}

func TestAccessLog_NoLogger(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New())
	r.GET("/", func(c *router.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAccessLog_CompressedResponse(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	body := strings.Repeat(`{"key":"value"},`, 512)

	r := router.MustNew()
	r.Use(New(WithLogger(slog.New(h))), compression.New())
	r.GET("/api/data", func(c *router.Context) {
		c.Response.Header().Set("Content-Type", "application/json")
		_, _ = c.Response.Write([]byte(body))
	})

	w := do(r, "/api/data", "Accept-Encoding", "gzip")
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	records := h.all()
	require.Len(t, records, 1)
	assert.Equal(t, "gzip", records[0].attrs["content_encoding"])
	assert.Equal(t, int64(w.Body.Len()), records[0].attrs["bytes_sent"])
	assert.Less(t, records[0].attrs["bytes_sent"], int64(len(body)))
}

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	assert.False(t, rw.Written())
	assert.Equal(t, http.StatusOK, rw.StatusCode())

	rw.WriteHeader(http.StatusAccepted)
	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	rw.Flush()

	assert.Equal(t, 5, n)
	assert.True(t, rw.Written())
	assert.Equal(t, http.StatusAccepted, rw.StatusCode())
	assert.Equal(t, int64(5), rw.Size())
	assert.Same(t, rec, rw.Unwrap())
	assert.True(t, rec.Flushed)
}
