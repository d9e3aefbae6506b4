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

// Package tracing provides OpenTelemetry tracing for smartcompressd.
//
// A [Tracer] owns an SDK tracer provider exporting to stdout, OTLP/gRPC or
// OTLP/HTTP, or nowhere (the default, which still produces valid span
// contexts for log correlation). Root spans are sampled by trace ID ratio;
// sampled remote parents are always followed.
//
//	tracer, err := tracing.New(ctx,
//	    tracing.WithOTLP("otel-collector:4317"),
//	    tracing.WithInsecure(),
//	    tracing.WithSampleRate(0.1),
//	    tracing.WithServiceName("smartcompressd"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	r.Use(requestid.New(), tracer.Middleware(tracing.WithExcludePaths("/metrics")))
//
// Spans carry the HTTP semantic convention attributes plus
// http.response.content_encoding, so compressed and uncompressed responses
// can be told apart in a trace backend.
package tracing
