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

// Package metrics records compression decisions with OpenTelemetry.
//
// A [Recorder] implements the recorder interfaces of the compression and
// exemption middleware:
//
//	rec := metrics.MustNew(metrics.WithPrometheus(), metrics.WithServiceVersion(version))
//	defer rec.Shutdown(context.Background())
//
//	r.Use(
//	    rec.Middleware(metrics.WithExcludePaths("/metrics")),
//	    compression.New(compression.WithRecorder(rec)),
//	    exemption.New(exemption.WithRecorder(rec)),
//	)
//	h, _ := rec.Handler()
//	r.GET("/metrics", func(c *router.Context) { h.ServeHTTP(c.Response, c.Request) })
//
// # Providers
//
//   - prometheus (default): private registry scraped through [Recorder.Handler]
//   - otlp: periodic push to an OTLP/HTTP collector, see [WithOTLP]
//   - stdout: periodic JSON dump, useful while developing
//   - none: measurements are discarded
//
// # Instruments
//
// With the Prometheus provider the exported names are:
//
//	smartcompress_decisions_total{encoding,reason}
//	smartcompress_exemptions_total{cause}
//	smartcompress_bytes_uncompressed_total{encoding}
//	smartcompress_bytes_compressed_total{encoding}
//	smartcompress_finalize_errors_total{encoding}
//	smartcompress_http_requests_total{http_method,http_status_class}
//	smartcompress_http_duration{http_method,http_status_class}
package metrics
