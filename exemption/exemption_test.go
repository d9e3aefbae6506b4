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

package exemption

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/compression"
)

var largeText = strings.Repeat("exemption filter payload ", 200)

type fakeRecorder struct {
	mu     sync.Mutex
	causes []string
}

func (f *fakeRecorder) RecordExemption(_ context.Context, cause string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.causes = append(f.causes, cause)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ok") //nolint:errcheck // test handler
	})
}

func TestFilter_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		target         string
		acceptEncoding string
		headers        map[string]string
		wantMarked     bool
	}{
		{"exempt path substring", "/api/info/status", "gzip", nil, true},
		{"swagger path", "/swagger/index.html", "gzip", nil, true},
		{"dashboard path", "/lineupdashboardservice/x", "br", nil, true},
		{"path in query string", "/api/data?next=/info", "gzip", nil, true},
		{"request opt-out header", "/api/data", "gzip", map[string]string{"Ignore-Encoding": "yes"}, true},
		{"request opt-out header with empty value", "/api/data", "gzip", map[string]string{"Ignore-Encoding": ""}, true},
		{"not exempt", "/api/data", "gzip", nil, false},
		{"no accept encoding on exempt path", "/info/status", "", nil, false},
		{"blank accept encoding", "/info/status", "   ", nil, false},
		{"no accept encoding with opt-out header", "/api/data", "", map[string]string{"Ignore-Encoding": "yes"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := Handler(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if tt.wantMarked {
				assert.Equal(t, "true", w.Header().Get(compression.HeaderIgnoreEncoding))
			} else {
				assert.Empty(t, w.Header().Values(compression.HeaderIgnoreEncoding))
			}
			assert.Equal(t, "ok", w.Body.String())
		})
	}
}

func TestFilter_DoesNotMutateRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/info/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	before := req.Header.Clone()

	var seen http.Header
	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before, req.Header)
	assert.Equal(t, before, seen)
}

func TestFilter_MarksHandlerThatWritesNothing(t *testing.T) {
	t.Parallel()

	h := Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/swagger", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	assert.Equal(t, "true", w.Header().Get(compression.HeaderIgnoreEncoding))
}

func TestFilter_Cause(t *testing.T) {
	t.Parallel()

	f := NewFilter()

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	assert.Equal(t, CausePath, f.Cause(req))
	assert.True(t, f.IsExempt(req))
	assert.False(t, f.IsEligible(req))

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("ignore-encoding", "1")
	assert.Equal(t, CauseHeader, f.Cause(req))

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	assert.Equal(t, CauseNone, f.Cause(req))
	assert.False(t, f.IsExempt(req))
}

func TestFilter_CauseWithoutRequestURI(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequest(http.MethodGet, "http://example.com/api/info?x=1", nil)
	require.NoError(t, err)
	require.Empty(t, req.RequestURI)

	assert.Equal(t, CausePath, NewFilter().Cause(req))
}

func TestOptions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPaths, NewFilter().Paths())
	assert.Equal(t, []string{"/docs"}, NewFilter(WithPaths("/docs", "", "/docs")).Paths())
	assert.Equal(t,
		[]string{"/swagger", "/info", "/lineupdashboardservice", "/healthz"},
		NewFilter(WithAdditionalPaths("/healthz", "/info")).Paths(),
	)

	f := NewFilter(WithPaths(), WithHeader("x-skip-compression"))
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Skip-Compression", "1")
	assert.Equal(t, CauseHeader, f.Cause(req))

	w := httptest.NewRecorder()
	f.Apply(w, req, okHandler())
	assert.Equal(t, "true", w.Header().Get("X-Skip-Compression"))
	assert.Empty(t, w.Header().Get(compression.HeaderIgnoreEncoding))
}

func TestFilter_RecorderAndLogs(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := &fakeRecorder{}
	h := Handler(okHandler(), WithLogger(logger), WithRecorder(rec))

	for _, target := range []string{"/info", "/api", "/swagger"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Accept-Encoding", "gzip")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, []string{"path", "path"}, rec.causes)
	assert.Equal(t, 3, strings.Count(logs.String(), "applying encoding exemption filter"))
	assert.Equal(t, 2, strings.Count(logs.String(), "adding encoding exemption header"))
}

//nolint:paralleltest // Subtests share router state
func TestPipeline_ExemptResponsesAreNotCompressed(t *testing.T) {
	r := router.MustNew()
	r.Use(compression.New(), New())

	handler := func(c *router.Context) {
		c.String(http.StatusOK, largeText)
	}
	r.GET("/api/data", handler)
	r.GET("/info/status", handler)
	r.GET("/swagger/index.html", handler)

	tests := []struct {
		name        string
		path        string
		optOut      bool
		wantEncoded bool
	}{
		{"regular route", "/api/data", false, true},
		{"info route", "/info/status", false, false},
		{"swagger route", "/swagger/index.html", false, false},
		{"request opt-out", "/api/data", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", "gzip")
			if tt.optOut {
				req.Header.Set("Ignore-Encoding", "")
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if tt.wantEncoded {
				assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
				assert.Empty(t, w.Header().Get(compression.HeaderIgnoreEncoding))
			} else {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
				assert.Equal(t, "true", w.Header().Get(compression.HeaderIgnoreEncoding))
				assert.Equal(t, largeText, w.Body.String())
			}
		})
	}
}
