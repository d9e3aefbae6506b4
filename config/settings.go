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
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/lineup-dev/smartcompress/compression"
	"github.com/lineup-dev/smartcompress/exemption"
)

// EnvPrefix is the prefix of environment variables read by [LoadSettings].
const EnvPrefix = "SMARTCOMPRESS_"

// SettingsSchema is the JSON Schema every settings document must satisfy.
// Scalars may also be strings because environment variables are untyped.
//
//go:embed settings.schema.json
var SettingsSchema []byte

// Settings is the complete service configuration.
//
// Keys never contain underscores so that every field can be overridden from
// the environment: compression.exclude.paths is
// SMARTCOMPRESS_COMPRESSION_EXCLUDE_PATHS.
type Settings struct {
	Server      ServerSettings      `config:"server"`
	Logging     LoggingSettings     `config:"logging"`
	Metrics     MetricsSettings     `config:"metrics"`
	Tracing     TracingSettings     `config:"tracing"`
	Compression CompressionSettings `config:"compression"`
	Exemption   ExemptionSettings   `config:"exemption"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr     string           `config:"addr" default:":8080"`
	Timeouts TimeoutsSettings `config:"timeouts"`
}

// TimeoutsSettings holds the http.Server timeouts and the graceful shutdown
// deadline.
type TimeoutsSettings struct {
	Read     time.Duration `config:"read" default:"10s"`
	Write    time.Duration `config:"write" default:"30s"`
	Idle     time.Duration `config:"idle" default:"60s"`
	Shutdown time.Duration `config:"shutdown" default:"15s"`
}

// LoggingSettings configures the service logger.
type LoggingSettings struct {
	Level   string          `config:"level" default:"info" validate:"oneofci=debug info warn warning error"`
	Format  string          `config:"format" default:"json" validate:"oneofci=json text console"`
	Service ServiceSettings `config:"service"`
}

// ServiceSettings identifies the service in logs and metrics.
type ServiceSettings struct {
	Name        string `config:"name" default:"smartcompressd"`
	Version     string `config:"version" default:"dev"`
	Environment string `config:"environment" default:"development"`
}

// MetricsSettings selects and configures the metrics exporter.
type MetricsSettings struct {
	// Provider is one of prometheus, otlp, stdout or none.
	Provider string `config:"provider" default:"prometheus" validate:"oneofci=prometheus otlp stdout none"`
	// Path is where the Prometheus handler is mounted.
	Path string `config:"path" default:"/metrics"`
	// Endpoint is the OTLP collector host:port.
	Endpoint string `config:"endpoint"`
	// Interval is the push interval for otlp and stdout.
	Interval time.Duration `config:"interval" default:"30s"`
}

// TracingSettings selects and configures the span exporter.
type TracingSettings struct {
	// Provider is one of none, stdout, otlp or otlp-http.
	Provider string `config:"provider" default:"none" validate:"oneofci=none stdout otlp otlp-http"`
	// Endpoint is the collector address for otlp and otlp-http.
	Endpoint string `config:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `config:"insecure"`
	// Sample is the head sampling ratio in [0, 1].
	Sample *float64 `config:"sample" default:"1" validate:"omitnil,gte=0,lte=1"`
}

// CompressionSettings maps onto compression middleware options.
type CompressionSettings struct {
	// Threshold in bytes. Zero compresses regardless of size.
	Threshold *int64          `config:"threshold" default:"1024" validate:"omitnil,gte=0"`
	Encodings []string        `config:"encodings" default:"br,zstd,gzip,deflate" validate:"min=1,dive,encoding"`
	Levels    LevelsSettings  `config:"levels"`
	Text      TypesSettings   `config:"text"`
	Exclude   ExcludeSettings `config:"exclude"`
	Marker    string          `config:"marker" default:"Ignore-Encoding"`
	Cache     CacheSettings   `config:"cache"`
}

// LevelsSettings holds per-codec compression levels. Zero keeps the codec
// default.
type LevelsSettings struct {
	Gzip    int `config:"gzip"`
	Deflate int `config:"deflate"`
	Brotli  int `config:"brotli"`
	Zstd    int `config:"zstd"`
}

// TypesSettings lists extra media types treated as text.
type TypesSettings struct {
	Types []string `config:"types"`
}

// ExcludeSettings lists paths and media types that are never compressed.
type ExcludeSettings struct {
	Paths []string `config:"paths"`
	Types []string `config:"types"`
}

// CacheSettings bounds the media type classification cache.
type CacheSettings struct {
	Size int `config:"size" default:"256" validate:"gte=0"`
}

// ExemptionSettings maps onto exemption filter options.
type ExemptionSettings struct {
	// Paths replaces the default exempt paths when non-empty.
	Paths []string `config:"paths"`
	// Extra is appended to the exempt paths.
	Extra []string `config:"extra"`
}

// Validate checks the `validate` tags and the cross-field constraints that
// neither the tags nor the schema express.
func (s *Settings) Validate() error {
	errs := validateTags(s)

	if strings.EqualFold(s.Metrics.Provider, "otlp") && s.Metrics.Endpoint == "" {
		errs = append(errs, NewFieldError("settings", "metrics.endpoint", "validate",
			errors.New("required when provider is otlp")))
	}

	return errors.Join(errs...)
}

// CompressionOptions translates the compression section into middleware
// options. Callers append logger and recorder options.
func (s *Settings) CompressionOptions() []compression.Option {
	c := s.Compression

	encodings := make([]compression.Encoding, 0, len(c.Encodings))
	for _, name := range c.Encodings {
		if enc, ok := compression.ParseEncoding(name); ok {
			encodings = append(encodings, enc)
		}
	}

	opts := []compression.Option{
		compression.WithEncodings(encodings...),
		compression.WithMarkerHeader(c.Marker),
		compression.WithClassifierCacheSize(c.Cache.Size),
	}
	if c.Threshold != nil {
		opts = append(opts, compression.WithThreshold(*c.Threshold))
	}
	if len(c.Text.Types) > 0 {
		opts = append(opts, compression.WithTextTypes(c.Text.Types...))
	}
	if len(c.Exclude.Paths) > 0 {
		opts = append(opts, compression.WithExcludePaths(c.Exclude.Paths...))
	}
	if len(c.Exclude.Types) > 0 {
		opts = append(opts, compression.WithExcludeContentTypes(c.Exclude.Types...))
	}
	if c.Levels.Gzip != 0 {
		opts = append(opts, compression.WithGzipLevel(c.Levels.Gzip))
	}
	if c.Levels.Deflate != 0 {
		opts = append(opts, compression.WithDeflateLevel(c.Levels.Deflate))
	}
	if c.Levels.Brotli != 0 {
		opts = append(opts, compression.WithBrotliLevel(c.Levels.Brotli))
	}
	if c.Levels.Zstd != 0 {
		opts = append(opts, compression.WithZstdLevel(c.Levels.Zstd))
	}

	return opts
}

// ExemptionOptions translates the exemption section into filter options.
// The filter marks responses with compression.marker, the header the
// compression policy checks.
func (s *Settings) ExemptionOptions() []exemption.Option {
	opts := []exemption.Option{exemption.WithHeader(s.Compression.Marker)}
	if len(s.Exemption.Paths) > 0 {
		opts = append(opts, exemption.WithPaths(s.Exemption.Paths...))
	}
	if len(s.Exemption.Extra) > 0 {
		opts = append(opts, exemption.WithAdditionalPaths(s.Exemption.Extra...))
	}

	return opts
}

// LoadSettings loads and validates [Settings]. The given options supply the
// sources, typically a file, the environment and Consul:
//
//	settings, cfg, err := config.LoadSettings(ctx,
//	    config.WithFile("smartcompress.yaml"),
//	    config.WithEnv(config.EnvPrefix),
//	)
func LoadSettings(ctx context.Context, opts ...Option) (*Settings, *Config, error) {
	var settings Settings

	all := append([]Option{WithJSONSchema(SettingsSchema)}, opts...)
	all = append(all, WithBinding(&settings))

	cfg, err := New(all...)
	if err != nil {
		return nil, nil, err
	}

	if err = cfg.Load(ctx); err != nil {
		return nil, nil, err
	}

	return &settings, cfg, nil
}
