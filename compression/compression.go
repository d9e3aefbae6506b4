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

package compression

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"rivaas.dev/router"
)

// Option defines functional options for compression middleware configuration.
type Option func(*config)

// Recorder receives compression metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// RecordDecision is called once per response with the chosen encoding
	// ("identity" when skipped) and the decision reason.
	RecordDecision(ctx context.Context, encoding string, reason string)
	// RecordBytes is called after a compressed response is finalized.
	RecordBytes(ctx context.Context, encoding string, uncompressed, compressed int64)
	// RecordFinalizeError is called when closing a codec stream fails.
	RecordFinalizeError(ctx context.Context, encoding string)
}

// config holds the configuration for the compression middleware.
type config struct {
	// logger is the structured logger for decision and error logging
	logger *slog.Logger

	// recorder receives decision and size metrics
	recorder Recorder

	// threshold is the minimum known body size to compress (in bytes)
	threshold int64

	// classifier overrides the default text-based media type classifier
	classifier Classifier

	// textTypes are extra media types accepted by the default classifier
	textTypes []string

	// cacheSize bounds the default classifier's memoization
	cacheSize int

	// excludeContentTypes are media types that are never compressed
	excludeContentTypes map[string]bool

	// marker is the canonical exemption marker header name
	marker string

	// encodings are the offered encodings in preference order
	encodings []Encoding

	// levels holds the compression level per encoding
	levels map[Encoding]int

	// excludePaths are exact paths that are never compressed
	excludePaths map[string]bool
}

// defaultConfig returns the default configuration for compression middleware.
func defaultConfig() *config {
	return &config{
		threshold:           DefaultThreshold,
		cacheSize:           DefaultClassifierCacheSize,
		excludeContentTypes: make(map[string]bool),
		marker:              HeaderIgnoreEncoding,
		encodings:           slices.Clone(DefaultEncodings),
		levels: map[Encoding]int{
			Brotli:  DefaultBrotliLevel,
			Zstd:    DefaultZstdLevel,
			Gzip:    DefaultGzipLevel,
			Deflate: DefaultDeflateLevel,
		},
		excludePaths: make(map[string]bool),
	}
}

func (cfg *config) buildPolicy() *Policy {
	classifier := cfg.classifier
	if classifier == nil {
		classifier = newMediaTypeClassifier(cfg.cacheSize, cfg.textTypes...)
	}

	return &Policy{
		threshold:    cfg.threshold,
		classifier:   classifier,
		marker:       cfg.marker,
		excludeTypes: cfg.excludeContentTypes,
	}
}

// middleware is the shared, immutable state behind [New] and [Handler].
type middleware struct {
	cfg    *config
	policy *Policy
	pools  map[Encoding]*sync.Pool
}

func newMiddleware(opts ...Option) *middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	m := &middleware{
		cfg:    cfg,
		policy: cfg.buildPolicy(),
		pools:  make(map[Encoding]*sync.Pool, len(cfg.encodings)),
	}
	for _, enc := range cfg.encodings {
		m.pools[enc] = encoderPool(enc, cfg.levels[enc])
	}

	return m
}

// begin returns the per-request writer, or nil when the response should pass
// through untouched.
func (m *middleware) begin(w http.ResponseWriter, r *http.Request) *compressWriter {
	ctx := r.Context()

	if m.cfg.excludePaths[r.URL.Path] {
		m.observe(ctx, Identity, skip(ReasonExcludedPath))
		return nil
	}

	if r.Method == http.MethodHead {
		m.observe(ctx, Identity, skip(ReasonHeadRequest))
		return nil
	}

	encoding := negotiate(r.Header.Get("Accept-Encoding"), m.cfg.encodings)
	if encoding == "" {
		m.observe(ctx, Identity, skip(ReasonNotAccepted))
		return nil
	}

	return &compressWriter{
		ResponseWriter: w,
		m:              m,
		ctx:            ctx,
		encoding:       encoding,
		pool:           m.pools[encoding],
	}
}

// finish records the decision of a response nothing was written to, closes
// the per-request writer and logs finalization errors.
func (m *middleware) finish(cw *compressWriter) {
	cw.decideUnwritten()
	if err := cw.Close(); err != nil {
		m.logError(cw.ctx, "compression finalization failed", cw.encoding, err)
		if m.cfg.recorder != nil {
			m.cfg.recorder.RecordFinalizeError(cw.ctx, string(cw.encoding))
		}
	}
}

func (m *middleware) observe(ctx context.Context, encoding string, d Decision) {
	if m.cfg.logger != nil {
		m.cfg.logger.DebugContext(ctx, "compression decision",
			"encoding", encoding,
			"reason", string(d.Reason),
			"skip", d.Skip,
		)
	}
	if m.cfg.recorder != nil {
		m.cfg.recorder.RecordDecision(ctx, encoding, string(d.Reason))
	}
}

func (m *middleware) recordBytes(ctx context.Context, enc Encoding, uncompressed, compressed int64) {
	if m.cfg.recorder != nil {
		m.cfg.recorder.RecordBytes(ctx, string(enc), uncompressed, compressed)
	}
}

func (m *middleware) logError(ctx context.Context, msg string, enc Encoding, err error) {
	if m.cfg.logger != nil {
		m.cfg.logger.ErrorContext(ctx, msg, "encoding", string(enc), "error", err)
	}
}

// New returns a middleware that compresses text-based HTTP responses whose
// size is unknown or at least the configured threshold. The decision is made
// per response, once, when its headers are finalized:
//
//   - a response carrying the Ignore-Encoding marker is never compressed
//   - a response without Content-Type is never compressed
//   - a non-text Content-Type is never compressed
//   - a known Content-Length below the threshold is never compressed
//
// It also skips HEAD requests, 204/206/304 responses, responses that already
// carry Content-Encoding, and clients that accept none of the offered
// encodings. Encodings are negotiated with q-values; br, zstd, gzip and
// deflate are offered by default.
//
// Basic usage:
//
//	r := router.MustNew()
//	r.Use(compression.New())
//
// Together with the exemption filter, mount compression first so the filter's
// marker is set before compression inspects the headers:
//
//	r.Use(
//	    compression.New(compression.WithThreshold(2048)),
//	    exemption.New(exemption.WithAdditionalPaths("/healthz")),
//	)
func New(opts ...Option) router.HandlerFunc {
	m := newMiddleware(opts...)

	return func(c *router.Context) {
		cw := m.begin(c.Response, c.Request)
		if cw == nil {
			c.Next()
			return
		}

		originalWriter := c.Response
		c.Response = cw
		defer func() {
			m.finish(cw)
			c.Response = originalWriter
		}()

		c.Next()
	}
}

// Handler wraps next with the compression middleware for plain net/http
// servers.
//
//	http.ListenAndServe(":8080", compression.Handler(mux))
func Handler(next http.Handler, opts ...Option) http.Handler {
	m := newMiddleware(opts...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := m.begin(w, r)
		if cw == nil {
			next.ServeHTTP(w, r)
			return
		}

		defer m.finish(cw)

		next.ServeHTTP(cw, r)
	})
}
