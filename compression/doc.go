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

// Package compression provides selective HTTP response compression.
//
// The middleware compresses a response only when the policy allows it. The
// policy is a pure function of the response headers at the moment they are
// finalized:
//
//   - Ignore-Encoding present (any value): skip
//   - Content-Type absent: skip
//   - Content-Type not text-based: skip
//   - Content-Length known and below the threshold: skip
//   - otherwise: compress
//
// The decision is stored on a writer allocated for that single response and
// is never recomputed for later body chunks, so one middleware instance can
// serve any number of concurrent requests.
//
// # Basic Usage
//
//	import "github.com/lineup-dev/smartcompress/compression"
//
//	r := router.MustNew()
//	r.Use(compression.New())
//
// With net/http:
//
//	http.ListenAndServe(":8080", compression.Handler(mux))
//
// # Using the Policy Directly
//
//	p := compression.NewPolicy(compression.WithThreshold(1024))
//	p.ShouldSkip("text/plain", 500)                     // true
//	p.ShouldSkip("application/json", compression.UnknownLength) // false
//
// # Supported Algorithms
//
//   - br: Brotli (github.com/andybalholm/brotli)
//   - zstd: Zstandard (github.com/klauspost/compress/zstd)
//   - gzip: gzip (github.com/klauspost/compress/gzip)
//   - deflate: raw deflate (github.com/klauspost/compress/flate)
//
// The encoding is negotiated from Accept-Encoding using q-values; ties are
// broken by the configured preference order.
//
// # Text-Based Content Types
//
// The default [MediaTypeClassifier] treats text/*, application/javascript,
// json, xml and x-yaml subtypes, and +json, +xml and +text suffixes as
// compressible. Use [WithTextTypes] to add types or [WithClassifier] to
// replace the table.
package compression
