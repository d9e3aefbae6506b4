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
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/samber/lo"
	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/compression"
)

// MarkerValue is the value written to the marker header of exempt responses.
const MarkerValue = "true"

// DefaultPaths are the URI substrings exempt from compression by default.
var DefaultPaths = []string{"/swagger", "/info", "/lineupdashboardservice"}

// Cause explains why a request was exempted.
type Cause string

const (
	CauseNone   Cause = "none"
	CausePath   Cause = "path"
	CauseHeader Cause = "header"
)

// Option defines functional options for the exemption filter.
type Option func(*config)

// Recorder is notified once per exempted request. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordExemption(ctx context.Context, cause string)
}

type config struct {
	paths    []string
	header   string
	logger   *slog.Logger
	recorder Recorder
}

func defaultConfig() *config {
	return &config{
		paths:  slices.Clone(DefaultPaths),
		header: compression.HeaderIgnoreEncoding,
	}
}

// Filter marks responses that must not be compressed. It never inspects or
// alters the response body and never mutates the request.
type Filter struct {
	cfg *config
}

// NewFilter returns a filter configured with opts.
func NewFilter(opts ...Option) *Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Filter{cfg: cfg}
}

// Paths returns a copy of the exempt path substrings.
func (f *Filter) Paths() []string {
	return slices.Clone(f.cfg.paths)
}

// IsEligible reports whether the filter applies to r at all: the client must
// send a non-blank Accept-Encoding header.
func (f *Filter) IsEligible(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get("Accept-Encoding")) != ""
}

// IsExempt reports whether r matches an exempt path or carries the marker
// header. Only presence of the header matters, not its value.
func (f *Filter) IsExempt(r *http.Request) bool {
	return f.Cause(r) != CauseNone
}

// Cause returns why r is exempt, or CauseNone.
func (f *Filter) Cause(r *http.Request) Cause {
	uri := requestURI(r)
	if lo.ContainsBy(f.cfg.paths, func(p string) bool { return strings.Contains(uri, p) }) {
		return CausePath
	}
	if compression.HasHeader(r.Header, f.cfg.header) {
		return CauseHeader
	}

	return CauseNone
}

// Apply serves next and, for an eligible and exempt request, adds the marker
// header to the response before its headers are sent.
func (f *Filter) Apply(w http.ResponseWriter, r *http.Request, next http.Handler) {
	mw := f.begin(w, r)
	if mw == nil {
		next.ServeHTTP(w, r)
		return
	}

	next.ServeHTTP(mw, r)
	mw.mark()
}

// begin returns the marking writer for an eligible and exempt request, or nil
// when the response passes through untouched.
func (f *Filter) begin(w http.ResponseWriter, r *http.Request) *markingWriter {
	if !f.IsEligible(r) {
		return nil
	}

	ctx := r.Context()
	f.debug(ctx, "applying encoding exemption filter", "uri", requestURI(r))

	cause := f.Cause(r)
	if cause == CauseNone {
		return nil
	}

	if f.cfg.recorder != nil {
		f.cfg.recorder.RecordExemption(ctx, string(cause))
	}

	return &markingWriter{
		ResponseWriter: w,
		header:         f.cfg.header,
		onMark: func() {
			f.debug(ctx, "adding encoding exemption header",
				"header", f.cfg.header,
				"cause", string(cause),
			)
		},
	}
}

func (f *Filter) debug(ctx context.Context, msg string, args ...any) {
	if f.cfg.logger != nil {
		f.cfg.logger.DebugContext(ctx, msg, args...)
	}
}

func requestURI(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}

	return r.URL.RequestURI()
}

// New returns a middleware that adds "Ignore-Encoding: true" to responses for
// requests that accept an encoding but hit an exempt path or carry the
// Ignore-Encoding header themselves.
//
// Mount it after compression so the marker is visible when compression
// inspects the response headers:
//
//	r := router.MustNew()
//	r.Use(compression.New(), exemption.New())
func New(opts ...Option) router.HandlerFunc {
	f := NewFilter(opts...)

	return func(c *router.Context) {
		mw := f.begin(c.Response, c.Request)
		if mw == nil {
			c.Next()
			return
		}

		originalWriter := c.Response
		c.Response = mw

		c.Next()

		mw.mark()
		c.Response = originalWriter
	}
}

// Handler wraps next with the exemption filter for plain net/http servers.
func Handler(next http.Handler, opts ...Option) http.Handler {
	f := NewFilter(opts...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.Apply(w, r, next)
	})
}
