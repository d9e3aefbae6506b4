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

package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineup-dev/smartcompress/compression"
	"github.com/lineup-dev/smartcompress/config/codec"
	"github.com/lineup-dev/smartcompress/exemption"
)

const settingsYAML = `
server:
  addr: ":9090"
  timeouts:
    shutdown: 5s
logging:
  level: debug
  format: console
compression:
  threshold: 2048
  encodings: [gzip, br]
  marker: X-Raw
  exclude:
    paths: [/metrics]
  levels:
    gzip: 9
exemption:
  extra: [/healthz]
`

func TestLoadSettings_Defaults(t *testing.T) {
	t.Parallel()

	settings, cfg, err := LoadSettings(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", settings.Server.Addr)
	assert.Equal(t, 10*time.Second, settings.Server.Timeouts.Read)
	assert.Equal(t, 30*time.Second, settings.Server.Timeouts.Write)
	assert.Equal(t, 60*time.Second, settings.Server.Timeouts.Idle)
	assert.Equal(t, 15*time.Second, settings.Server.Timeouts.Shutdown)
	assert.Equal(t, "info", settings.Logging.Level)
	assert.Equal(t, "json", settings.Logging.Format)
	assert.Equal(t, "smartcompressd", settings.Logging.Service.Name)
	assert.Equal(t, "prometheus", settings.Metrics.Provider)
	assert.Equal(t, "/metrics", settings.Metrics.Path)
	assert.Equal(t, 30*time.Second, settings.Metrics.Interval)
	assert.Equal(t, "none", settings.Tracing.Provider)
	require.NotNil(t, settings.Tracing.Sample)
	assert.InDelta(t, 1.0, *settings.Tracing.Sample, 0)
	assert.False(t, settings.Tracing.Insecure)
	assert.Equal(t, lo.ToPtr(int64(compression.DefaultThreshold)), settings.Compression.Threshold)
	assert.Equal(t, []string{"br", "zstd", "gzip", "deflate"}, settings.Compression.Encodings)
	assert.Equal(t, compression.HeaderIgnoreEncoding, settings.Compression.Marker)
	assert.Equal(t, 256, settings.Compression.Cache.Size)
	assert.Empty(t, settings.Exemption.Paths)
}

func TestLoadSettings_FromYAML(t *testing.T) {
	t.Parallel()

	settings, _, err := LoadSettings(context.Background(), WithContent([]byte(settingsYAML), codec.TypeYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", settings.Server.Addr)
	assert.Equal(t, 5*time.Second, settings.Server.Timeouts.Shutdown)
	assert.Equal(t, 10*time.Second, settings.Server.Timeouts.Read)
	assert.Equal(t, "debug", settings.Logging.Level)
	assert.Equal(t, "console", settings.Logging.Format)
	assert.Equal(t, lo.ToPtr(int64(2048)), settings.Compression.Threshold)
	assert.Equal(t, []string{"gzip", "br"}, settings.Compression.Encodings)
	assert.Equal(t, "X-Raw", settings.Compression.Marker)
	assert.Equal(t, []string{"/metrics"}, settings.Compression.Exclude.Paths)
	assert.Equal(t, 9, settings.Compression.Levels.Gzip)
	assert.Equal(t, []string{"/healthz"}, settings.Exemption.Extra)
}

//nolint:paralleltest // t.Setenv
func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	t.Setenv("SMARTCOMPRESS_COMPRESSION_THRESHOLD", "4096")
	t.Setenv("SMARTCOMPRESS_COMPRESSION_ENCODINGS", "zstd,gzip")
	t.Setenv("SMARTCOMPRESS_EXEMPTION_PATHS", "/docs,/status")
	t.Setenv("SMARTCOMPRESS_SERVER_TIMEOUTS_READ", "2s")

	path := writeFile(t, "smartcompress.yaml", settingsYAML)

	settings, _, err := LoadSettings(context.Background(), WithFile(path), WithEnv(EnvPrefix))
	require.NoError(t, err)

	assert.Equal(t, lo.ToPtr(int64(4096)), settings.Compression.Threshold)
	assert.Equal(t, []string{"zstd", "gzip"}, settings.Compression.Encodings)
	assert.Equal(t, []string{"/docs", "/status"}, settings.Exemption.Paths)
	assert.Equal(t, 2*time.Second, settings.Server.Timeouts.Read)
	assert.Equal(t, ":9090", settings.Server.Addr)
}

//nolint:paralleltest // t.Setenv
func TestLoadSettings_TracingFromEnv(t *testing.T) {
	t.Setenv("SMARTCOMPRESS_TRACING_PROVIDER", "otlp-http")
	t.Setenv("SMARTCOMPRESS_TRACING_ENDPOINT", "collector:4318")
	t.Setenv("SMARTCOMPRESS_TRACING_INSECURE", "true")
	t.Setenv("SMARTCOMPRESS_TRACING_SAMPLE", "0.25")

	settings, _, err := LoadSettings(context.Background(), WithEnv(EnvPrefix))
	require.NoError(t, err)

	assert.Equal(t, "otlp-http", settings.Tracing.Provider)
	assert.Equal(t, "collector:4318", settings.Tracing.Endpoint)
	assert.True(t, settings.Tracing.Insecure)
	require.NotNil(t, settings.Tracing.Sample)
	assert.InDelta(t, 0.25, *settings.Tracing.Sample, 1e-9)
}

func TestLoadSettings_SchemaRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "negative threshold", doc: `{"compression": {"threshold": -5}}`},
		{name: "unknown section", doc: `{"compresion": {"threshold": 10}}`},
		{name: "unknown key", doc: `{"compression": {"level": 5}}`},
		{name: "empty marker", doc: `{"compression": {"marker": ""}}`},
		{name: "relative metrics path", doc: `{"metrics": {"path": "metrics"}}`},
		{name: "brotli level out of range", doc: `{"compression": {"levels": {"brotli": 30}}}`},
		{name: "negative sample", doc: `{"tracing": {"sample": -0.5}}`},
		{name: "separate exemption header", doc: `{"exemption": {"header": "X-No-Compress"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := LoadSettings(context.Background(), WithContent([]byte(tt.doc), codec.TypeJSON))
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "json-schema", cfgErr.Source)
		})
	}
}

func TestLoadSettings_ValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "unknown encoding", doc: `{"compression": {"encodings": ["gzip", "lz4"]}}`, wantErr: `unsupported encoding "lz4"`},
		{name: "unknown log format", doc: `{"logging": {"format": "xml"}}`, wantErr: "logging.format"},
		{name: "unknown log level", doc: `{"logging": {"level": "trace"}}`, wantErr: "logging.level"},
		{name: "unknown provider", doc: `{"metrics": {"provider": "statsd"}}`, wantErr: "metrics.provider"},
		{name: "otlp without endpoint", doc: `{"metrics": {"provider": "otlp"}}`, wantErr: "metrics.endpoint"},
		{name: "unknown trace provider", doc: `{"tracing": {"provider": "zipkin"}}`, wantErr: "tracing.provider"},
		{name: "sample above one", doc: `{"tracing": {"sample": "1.5"}}`, wantErr: "tracing.sample"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := LoadSettings(context.Background(), WithContent([]byte(tt.doc), codec.TypeJSON))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSettings_CaseInsensitiveChoices(t *testing.T) {
	t.Parallel()

	doc := `{"logging": {"format": "JSON", "level": "Debug"}, "metrics": {"provider": "None"}, "tracing": {"provider": "STDOUT"}}`
	settings, _, err := LoadSettings(context.Background(), WithContent([]byte(doc), codec.TypeJSON))
	require.NoError(t, err)

	assert.Equal(t, "STDOUT", settings.Tracing.Provider)
}

func TestSettings_ValidateFieldErrors(t *testing.T) {
	t.Parallel()

	s := Settings{
		Logging:     LoggingSettings{Level: "info", Format: "json"},
		Metrics:     MetricsSettings{Provider: "none"},
		Tracing:     TracingSettings{Provider: "none", Sample: lo.ToPtr(2.0)},
		Compression: CompressionSettings{Encodings: []string{"gzip", "lz4"}},
	}

	err := s.Validate()
	require.Error(t, err)

	var fieldErrs []*Error
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var cfgErr *Error
		require.ErrorAs(t, e, &cfgErr)
		fieldErrs = append(fieldErrs, cfgErr)
	}
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "tracing.sample", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Error(), "must not exceed 1")
	assert.Equal(t, "compression.encodings", fieldErrs[1].Field)
	assert.Contains(t, fieldErrs[1].Error(), `unsupported encoding "lz4"`)
}

func TestSettings_ValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	s := Settings{
		Logging:     LoggingSettings{Level: "info", Format: "json"},
		Metrics:     MetricsSettings{Provider: "none"},
		Compression: CompressionSettings{Threshold: lo.ToPtr(int64(-1)), Cache: CacheSettings{Size: -1}},
	}

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compression.threshold")
	assert.Contains(t, err.Error(), "compression.encodings")
	assert.Contains(t, err.Error(), "compression.cache.size")
}

func TestLoadSettings_ExplicitZeroSurvivesDefaults(t *testing.T) {
	t.Parallel()

	doc := "compression:\n  threshold: 0\ntracing:\n  sample: 0\n"
	settings, _, err := LoadSettings(context.Background(), WithContent([]byte(doc), codec.TypeYAML))
	require.NoError(t, err)

	require.NotNil(t, settings.Compression.Threshold)
	require.NotNil(t, settings.Tracing.Sample)
	assert.Equal(t, int64(0), *settings.Compression.Threshold)
	assert.InDelta(t, 0.0, *settings.Tracing.Sample, 0)

	policy := compression.NewPolicy(settings.CompressionOptions()...)
	assert.Equal(t, int64(0), policy.Threshold())
	assert.False(t, policy.ShouldSkip("application/json", 10))
}

func TestSettings_CompressionOptions(t *testing.T) {
	t.Parallel()

	settings, _, err := LoadSettings(context.Background(), WithContent([]byte(settingsYAML), codec.TypeYAML))
	require.NoError(t, err)

	policy := compression.NewPolicy(settings.CompressionOptions()...)
	assert.Equal(t, int64(2048), policy.Threshold())
	assert.True(t, policy.ShouldSkip("application/json", 1500))
	assert.False(t, policy.ShouldSkip("application/json", 4096))

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Raw", "true")
	assert.True(t, policy.ShouldSkipHeader(h))

	handler := compression.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(make([]byte, 4096))
	}), settings.CompressionOptions()...)

	tests := []struct {
		name           string
		path           string
		acceptEncoding string
		wantEncoding   string
	}{
		{name: "configured preference wins ties", path: "/api/data", acceptEncoding: "br, gzip", wantEncoding: "gzip"},
		{name: "only offered encodings", path: "/api/data", acceptEncoding: "zstd, br", wantEncoding: "br"},
		{name: "excluded path", path: "/metrics", acceptEncoding: "gzip", wantEncoding: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantEncoding, rec.Header().Get("Content-Encoding"))
		})
	}
}

func TestSettings_MarkerSharedByBothMiddlewares(t *testing.T) {
	t.Parallel()

	doc := `{"compression": {"marker": "X-No-Compress"}}`
	settings, _, err := LoadSettings(context.Background(), WithContent([]byte(doc), codec.TypeJSON))
	require.NoError(t, err)

	body := make([]byte, 4096)
	handler := compression.Handler(
		exemption.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		}), settings.ExemptionOptions()...),
		settings.CompressionOptions()...,
	)

	tests := []struct {
		name         string
		path         string
		optOut       bool
		wantEncoding string
		wantMarker   string
	}{
		{name: "exempt path", path: "/info/status", wantMarker: exemption.MarkerValue},
		{name: "client opt-out", path: "/api/data", optOut: true, wantMarker: exemption.MarkerValue},
		{name: "regular path", path: "/api/data", wantEncoding: "gzip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", "gzip")
			if tt.optOut {
				req.Header.Set("X-No-Compress", "")
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantEncoding, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.wantMarker, rec.Header().Get("X-No-Compress"))
			assert.Empty(t, rec.Header().Get(compression.HeaderIgnoreEncoding))
		})
	}
}

func TestSettings_ExemptionOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		settings   Settings
		wantPaths  []string
		wantHeader string
	}{
		{
			name:       "defaults follow compression marker",
			settings:   Settings{Compression: CompressionSettings{Marker: "X-Raw"}},
			wantPaths:  exemption.DefaultPaths,
			wantHeader: "X-Raw",
		},
		{
			name: "extra paths are appended",
			settings: Settings{
				Compression: CompressionSettings{Marker: compression.HeaderIgnoreEncoding},
				Exemption:   ExemptionSettings{Extra: []string{"/healthz"}},
			},
			wantPaths:  []string{"/swagger", "/info", "/lineupdashboardservice", "/healthz"},
			wantHeader: compression.HeaderIgnoreEncoding,
		},
		{
			name: "paths replace defaults",
			settings: Settings{
				Compression: CompressionSettings{Marker: "x-skip"},
				Exemption:   ExemptionSettings{Paths: []string{"/docs"}},
			},
			wantPaths:  []string{"/docs"},
			wantHeader: "X-Skip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := exemption.NewFilter(tt.settings.ExemptionOptions()...)
			assert.Equal(t, tt.wantPaths, filter.Paths())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.wantPaths[0]+"/index.html", nil)
			req.Header.Set("Accept-Encoding", "gzip")

			filter.Apply(rec, req, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("ok"))
			}))

			assert.Equal(t, exemption.MarkerValue, rec.Header().Get(tt.wantHeader))
		})
	}
}
