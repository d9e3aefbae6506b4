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

package recovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/compression"
	"github.com/lineup-dev/smartcompress/middleware/requestid"
)

func withStderr(w io.Writer) Option {
	return func(cfg *config) {
		cfg.stderr = w
	}
}

func panicRouter(t *testing.T, value any, opts ...Option) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.MustNew()
	r.Use(New(append([]Option{WithLogger(logger), WithPrettyStack(false)}, opts...)...))
	r.GET("/api/data", func(*router.Context) {
		panic(value)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	return w, buf.String()
}

func TestRecovery_DefaultResponse(t *testing.T) {
	t.Parallel()

	w, logs := panicRouter(t, "boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "INTERNAL_ERROR", body["code"])

	assert.Contains(t, logs, "panic recovered")
	assert.Contains(t, logs, "panic=boom")
	assert.Contains(t, logs, "path=/api/data")
}

func TestRecovery_NoPanic(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithoutLogging()))
	r.GET("/api/data", func(c *router.Context) {
		//nolint:errcheck // test handler
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery_PanicValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
	}{
		{name: "string", value: "string error"},
		{name: "int", value: 42},
		{name: "error", value: http.ErrBodyNotAllowed},
		{name: "struct", value: struct{ Message string }{"structured error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, logs := panicRouter(t, tt.value)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, logs, fmt.Sprintf("%v", tt.value))
			assert.Contains(t, logs, fmt.Sprintf("%T", tt.value))
		})
	}
}

func TestRecovery_CustomHandler(t *testing.T) {
	t.Parallel()

	w, _ := panicRouter(t, "custom", WithHandler(func(c *router.Context, err any) {
		//nolint:errcheck // test handler
		c.JSON(http.StatusServiceUnavailable, map[string]any{"panic_value": err})
	}))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"panic_value":"custom"}`, w.Body.String())
}

func TestRecovery_CompactStack(t *testing.T) {
	t.Parallel()

	_, logs := panicRouter(t, "compact")

	assert.Contains(t, logs, "stack trace")
	assert.Contains(t, logs, "frames")
	assert.Contains(t, logs, "recovery_test.go")
	assert.NotContains(t, logs, "[running]")
}

func TestRecovery_DisableStackTrace(t *testing.T) {
	t.Parallel()

	_, logs := panicRouter(t, "no stack", WithStackTrace(false))

	assert.Contains(t, logs, "panic recovered")
	assert.NotContains(t, logs, "stack trace")
}

func TestRecovery_StackSize(t *testing.T) {
	t.Parallel()

	_, logs := panicRouter(t, "small", WithStackSize(256))

	assert.Contains(t, logs, "stack trace")
	assert.Less(t, len(logs), 2048)
}

func TestRecovery_PrettyStack(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	w, logs := panicRouter(t, "pretty", WithPrettyStack(true), withStderr(&stderr))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs, "panic recovered")
	assert.NotContains(t, logs, "stack trace")
	assert.Contains(t, stderr.String(), "panic: pretty")
	assert.Contains(t, stderr.String(), "recovery_test.go")
}

func TestRecovery_WithoutLogging(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer

	r := router.MustNew()
	r.Use(New(WithoutLogging(), WithPrettyStack(true), withStderr(&stderr)))
	r.GET("/", func(*router.Context) { panic("quiet") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, stderr.String())
}

func TestRecovery_PanicInMiddleware(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithoutLogging()))
	r.Use(func(*router.Context) { panic("middleware") })
	r.GET("/", func(*router.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecovery_AbortHandlerIsReraised(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithoutLogging()))
	r.GET("/", func(*router.Context) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRecovery_LogsRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := router.MustNew()
	r.Use(requestid.New(), New(WithLogger(logger), WithStackTrace(false)))
	r.GET("/", func(*router.Context) { panic("traced") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.DefaultHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "request_id=req-42")
}

func TestRecovery_MarksSpan(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := router.MustNew()
	r.Use(func(c *router.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(New(WithoutLogging()))
	r.GET("/", func(*router.Context) { panic(http.ErrBodyNotAllowed) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("exception.escaped", true))
	assert.Contains(t, ended[0].Attributes(), attribute.String("exception.message", http.ErrBodyNotAllowed.Error()))
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestRecovery_BeforeCompression(t *testing.T) {
	t.Parallel()

	r := router.MustNew()
	r.Use(New(WithoutLogging()), compression.New())
	r.GET("/api/data", func(*router.Context) { panic("inside compression") })

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestParseFrames(t *testing.T) {
	t.Parallel()

	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:792 +0x132
main.handler(0xc000)
	/app/main.go:12 +0x25
main.run`)

	got := parseFrames(stack)
	require.Len(t, got, 2)
	assert.Equal(t, frame{function: "main.handler(0xc000)", location: "/app/main.go:12"}, got[0])
	assert.Equal(t, frame{function: "main.run", location: ""}, got[1])
	assert.Equal(t, []string{"main.handler(0xc000) /app/main.go:12", "main.run "}, got.strings())
}
