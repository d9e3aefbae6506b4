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
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func (t *Tracer) initializeProvider(ctx context.Context) error {
	if t.customTracerProvider {
		t.tracer = t.tracerProvider.Tracer(tracerName)
		t.debug("using caller tracer provider")
		return nil
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch t.provider {
	case NoopProvider:
	case StdoutProvider:
		w := t.stdout
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case OTLPProvider:
		exporter, err = t.newOTLPGRPC(ctx)
	case OTLPHTTPProvider:
		exporter, err = t.newOTLPHTTP(ctx)
	}
	if err != nil {
		return fmt.Errorf("create %s exporter: %w", t.provider, err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.serviceName),
			semconv.ServiceVersion(t.serviceVersion),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	t.sdkProvider = sdktrace.NewTracerProvider(opts...)
	t.tracerProvider = t.sdkProvider
	t.tracer = t.sdkProvider.Tracer(tracerName)

	t.debug("tracing initialized", "provider", string(t.provider), "endpoint", t.endpoint, "sample_rate", t.sampleRate)

	return nil
}

func (t *Tracer) newOTLPGRPC(ctx context.Context) (sdktrace.SpanExporter, error) {
	var opts []otlptracegrpc.Option
	if t.endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(t.endpoint))
	}
	if t.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	return otlptracegrpc.New(ctx, opts...)
}

func (t *Tracer) newOTLPHTTP(ctx context.Context) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if t.endpoint != "" {
		host, plain := splitEndpoint(t.endpoint)
		opts = append(opts, otlptracehttp.WithEndpoint(host))
		if plain {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}
	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return otlptracehttp.New(ctx, opts...)
}

// splitEndpoint strips the scheme and any path from endpoint and reports
// whether the scheme was plain http.
func splitEndpoint(endpoint string) (host string, plain bool) {
	host = endpoint
	if rest, ok := strings.CutPrefix(host, "http://"); ok {
		host, plain = rest, true
	} else if rest, ok := strings.CutPrefix(host, "https://"); ok {
		host = rest
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}

	return host, plain
}
