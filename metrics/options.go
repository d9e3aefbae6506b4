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

package metrics

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithPrometheus selects the Prometheus provider. Mount [Recorder.Handler]
// on the service router to expose it.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSet++
	}
}

// WithOTLP pushes metrics to an OTLP/HTTP collector. An http:// endpoint
// disables TLS.
//
//	metrics.WithOTLP("http://otel-collector:4318")
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.providerSet++
		r.otlpEndpoint = endpoint
	}
}

// WithStdout writes metrics to w, or to os.Stdout when w is nil.
func WithStdout(w io.Writer) Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSet++
		r.stdoutWriter = w
	}
}

// WithNoop disables metrics.
func WithNoop() Option {
	return func(r *Recorder) {
		r.provider = NoopProvider
		r.providerSet++
	}
}

// WithProvider selects the provider by value. endpoint is only used by
// OTLPProvider.
func WithProvider(p Provider, endpoint string) Option {
	switch p {
	case OTLPProvider:
		return WithOTLP(endpoint)
	case StdoutProvider:
		return WithStdout(nil)
	case NoopProvider:
		return WithNoop()
	case PrometheusProvider:
		return WithPrometheus()
	default:
		return func(r *Recorder) {
			r.provider = p
			r.providerSet++
		}
	}
}

// WithMeterProvider records into a caller-owned meter provider. The provider
// option is ignored and Shutdown leaves the provider running.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithExportInterval sets the push interval for OTLP and stdout.
// Default: 30s.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) { r.exportInterval = interval }
}

// WithServiceName sets the service.name attribute. Default: smartcompressd.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service.version attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithDurationBuckets overrides [DefaultDurationBuckets].
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.durationBuckets = buckets }
}

// WithLogger receives the recorder's own warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}
