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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/lineup-dev/smartcompress"

// Instrument names.
const (
	MetricDecisions         = "smartcompress.decisions"
	MetricExemptions        = "smartcompress.exemptions"
	MetricBytesUncompressed = "smartcompress.bytes.uncompressed"
	MetricBytesCompressed   = "smartcompress.bytes.compressed"
	MetricFinalizeErrors    = "smartcompress.finalize.errors"
	MetricHTTPRequests      = "smartcompress.http.requests"
	MetricHTTPDuration      = "smartcompress.http.duration"
)

// DefaultDurationBuckets are the request duration histogram boundaries in
// seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Provider selects the metrics exporter.
type Provider string

const (
	// PrometheusProvider exposes a scrape handler, see [Recorder.Handler].
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider periodically writes metrics as JSON.
	StdoutProvider Provider = "stdout"
	// NoopProvider discards everything.
	NoopProvider Provider = "none"
)

// ParseProvider converts a provider name from configuration.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case PrometheusProvider, OTLPProvider, StdoutProvider, NoopProvider:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported metrics provider: %q", s)
	}
}

// Recorder records compression and exemption outcomes. It satisfies both
// compression.Recorder and exemption.Recorder and is safe for concurrent
// use.
type Recorder struct {
	provider       Provider
	providerSet    int
	otlpEndpoint   string
	exportInterval time.Duration
	stdoutWriter   io.Writer
	logger         *slog.Logger

	serviceName    string
	serviceVersion string
	commonAttrs    []attribute.KeyValue

	durationBuckets []float64

	meterProvider       metric.MeterProvider
	customMeterProvider bool
	meter               metric.Meter

	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler

	decisions         metric.Int64Counter
	exemptions        metric.Int64Counter
	bytesUncompressed metric.Int64Counter
	bytesCompressed   metric.Int64Counter
	finalizeErrors    metric.Int64Counter
	httpRequests      metric.Int64Counter
	httpDuration      metric.Float64Histogram

	isShuttingDown atomic.Bool
}

// New creates a Recorder. The default provider is Prometheus.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		serviceName:     "smartcompressd",
		serviceVersion:  "dev",
		durationBuckets: DefaultDurationBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r.commonAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}

	return r
}

func (r *Recorder) validate() error {
	if r.providerSet > 1 {
		return errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP, WithStdout or WithNoop can be used")
	}
	if r.customMeterProvider && r.meterProvider == nil {
		return errors.New("custom meter provider is nil")
	}
	if r.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if r.provider == OTLPProvider && r.otlpEndpoint == "" {
		return errors.New("otlp provider requires an endpoint")
	}
	if r.exportInterval <= 0 {
		return fmt.Errorf("export interval must be positive, got %s", r.exportInterval)
	}
	if _, err := ParseProvider(string(r.provider)); err != nil {
		return err
	}

	return nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// Handler returns the Prometheus scrape handler. It fails for other
// providers.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("handler only available with Prometheus provider, current provider: %s", r.provider)
	}

	return r.prometheusHandler, nil
}

// ForceFlush exports pending measurements for push providers.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		return nil
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}

	return nil
}

// Shutdown flushes and stops the meter provider. A meter provider passed
// with [WithMeterProvider] is left to its owner. Calling Shutdown more than
// once is a no-op.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.customMeterProvider {
		return nil
	}

	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}

	if err := mp.ForceFlush(ctx); err != nil {
		r.warn("metrics flush failed", "error", err)
	}
	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}

func (r *Recorder) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Recorder) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
