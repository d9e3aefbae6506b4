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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/lineup-dev/smartcompress"

const (
	// DefaultServiceName names the service when none is configured.
	DefaultServiceName = "smartcompressd"
	// DefaultSampleRate samples every root span.
	DefaultSampleRate = 1.0
)

// Provider selects the span exporter.
type Provider string

const (
	// NoopProvider creates spans for context propagation but exports nothing.
	NoopProvider Provider = "none"
	// StdoutProvider writes spans as JSON, for development.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP/gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP/HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// ParseProvider converts a provider name from configuration.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported tracing provider: %q", s)
	}
}

// Tracer owns the tracer provider and the propagator used by [Tracer.Middleware].
type Tracer struct {
	provider       Provider
	providerSet    int
	endpoint       string
	insecure       bool
	stdout         io.Writer
	sampleRate     float64
	serviceName    string
	serviceVersion string
	logger         *slog.Logger
	registerGlobal bool

	tracerProvider       trace.TracerProvider
	customTracerProvider bool
	sdkProvider          *sdktrace.TracerProvider
	tracer               trace.Tracer
	propagator           propagation.TextMapPropagator

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a [Tracer].
type Option func(*Tracer)

func defaultTracer() *Tracer {
	return &Tracer{
		provider:       NoopProvider,
		sampleRate:     DefaultSampleRate,
		serviceName:    DefaultServiceName,
		serviceVersion: "dev",
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
}

// New creates a Tracer. ctx bounds exporter construction; OTLP exporters
// connect lazily, so New does not block on an unreachable collector.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := defaultTracer()
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	if err := t.initializeProvider(ctx); err != nil {
		return nil, err
	}

	if t.registerGlobal {
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(ctx context.Context, opts ...Option) *Tracer {
	t, err := New(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("tracing: %v", err))
	}

	return t
}

func (t *Tracer) validate() error {
	var errs []error

	if t.providerSet > 1 {
		errs = append(errs, errors.New("multiple providers configured"))
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		errs = append(errs, errors.New("custom tracer provider cannot be nil"))
	}
	if t.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if _, err := ParseProvider(string(t.provider)); err != nil && !t.customTracerProvider {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider {
	return t.provider
}

// Tracer returns the OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Extract returns ctx carrying the remote span context found in h, if any.
func (t *Tracer) Extract(ctx context.Context, h http.Header) context.Context {
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(h))
}

// Inject writes the span context of ctx into h.
func (t *Tracer) Inject(ctx context.Context, h http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(h))
}

// Shutdown flushes pending spans and stops the exporter. A tracer provider
// passed with [WithTracerProvider] is left running. Only the first call has
// an effect.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		if t.sdkProvider == nil || t.customTracerProvider {
			return
		}
		if err := t.sdkProvider.Shutdown(ctx); err != nil {
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	})

	return t.shutdownErr
}

func (t *Tracer) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
