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
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WithProvider selects the exporter by value. endpoint is used by the OTLP
// providers and may be empty to use the exporter's default.
func WithProvider(p Provider, endpoint string) Option {
	return func(t *Tracer) {
		t.provider = p
		t.endpoint = endpoint
		t.providerSet++
	}
}

// WithOTLP exports over OTLP/gRPC to endpoint (host:port).
func WithOTLP(endpoint string) Option {
	return WithProvider(OTLPProvider, endpoint)
}

// WithOTLPHTTP exports over OTLP/HTTP. An http:// prefix selects a plain
// text connection.
func WithOTLPHTTP(endpoint string) Option {
	return WithProvider(OTLPHTTPProvider, endpoint)
}

// WithStdout writes spans to w, os.Stdout when w is nil.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.stdout = w
		t.providerSet++
	}
}

// WithNoop disables exporting.
func WithNoop() Option {
	return WithProvider(NoopProvider, "")
}

// WithInsecure disables TLS for the OTLP exporters.
func WithInsecure() Option {
	return func(t *Tracer) { t.insecure = true }
}

// WithSampleRate samples the given fraction of root spans. Sampled remote
// parents are always followed. Rates are clamped to [0, 1].
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = min(max(rate, 0), 1) }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithTracerProvider uses a caller-owned provider; provider options are
// ignored and Shutdown leaves it running.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = tp
		t.customTracerProvider = true
	}
}

// WithPropagator replaces the default W3C trace context and baggage
// propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if p != nil {
			t.propagator = p
		}
	}
}

// WithGlobalTracerProvider registers the provider and propagator with the
// otel package.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithLogger reports provider lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) { t.logger = logger }
}
