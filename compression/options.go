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
	"log/slog"
	"net/textproto"
	"slices"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// WithThreshold sets the minimum body size, in bytes, that is compressed when
// Content-Length is known at the time headers are written. Bodies of unknown
// length are always eligible. Negative values are treated as 0.
// Default: 1024
//
// Example:
//
//	compression.New(compression.WithThreshold(2048))
func WithThreshold(bytes int64) Option {
	return func(cfg *config) {
		cfg.threshold = max(0, bytes)
	}
}

// WithClassifier replaces the text-based media type classifier.
// [WithTextTypes] has no effect once a custom classifier is set.
//
// Example:
//
//	compression.New(compression.WithClassifier(compression.ClassifierFunc(func(ct string) bool {
//	    return strings.HasPrefix(ct, "text/")
//	})))
func WithClassifier(c Classifier) Option {
	return func(cfg *config) {
		cfg.classifier = c
	}
}

// WithTextTypes registers extra media types as text-based for the default
// classifier.
//
// Example:
//
//	compression.New(compression.WithTextTypes("application/x-ndjson", "application/graphql"))
func WithTextTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		cfg.textTypes = append(cfg.textTypes, contentTypes...)
	}
}

// WithExcludeContentTypes sets media types that are never compressed, even
// when the classifier considers them text-based.
//
// Example:
//
//	compression.New(compression.WithExcludeContentTypes("text/event-stream"))
func WithExcludeContentTypes(contentTypes ...string) Option {
	return func(cfg *config) {
		for _, ct := range contentTypes {
			if ct = baseMediaType(ct); ct != "" {
				cfg.excludeContentTypes[ct] = true
			}
		}
	}
}

// WithMarkerHeader changes the exemption marker header name.
// It must match the name used by the exemption filter.
// Default: "Ignore-Encoding"
func WithMarkerHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.marker = textproto.CanonicalMIMEHeaderKey(name)
		}
	}
}

// WithClassifierCacheSize bounds the memoized classification results.
// A size of 0 disables the cache.
// Default: 256
func WithClassifierCacheSize(size int) Option {
	return func(cfg *config) {
		cfg.cacheSize = max(0, size)
	}
}

// WithEncodings sets the offered encodings in server preference order.
// Unknown and duplicate encodings are ignored.
// Default: br, zstd, gzip, deflate
//
// Example:
//
//	compression.New(compression.WithEncodings(compression.Gzip, compression.Brotli))
func WithEncodings(encodings ...Encoding) Option {
	return func(cfg *config) {
		offered := make([]Encoding, 0, len(encodings))
		for _, raw := range encodings {
			enc, ok := ParseEncoding(string(raw))
			if !ok || slices.Contains(offered, enc) {
				continue
			}
			offered = append(offered, enc)
		}
		cfg.encodings = offered
	}
}

// WithBrotliDisabled disables Brotli compression.
func WithBrotliDisabled() Option {
	return withoutEncoding(Brotli)
}

// WithGzipDisabled disables gzip compression.
func WithGzipDisabled() Option {
	return withoutEncoding(Gzip)
}

func withoutEncoding(enc Encoding) Option {
	return func(cfg *config) {
		cfg.encodings = slices.DeleteFunc(slices.Clone(cfg.encodings), func(e Encoding) bool {
			return e == enc
		})
	}
}

// WithGzipLevel sets the gzip compression level.
// Valid values: -2 (Huffman only) to 9 (best compression).
// Default: gzip.DefaultCompression
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		cfg.levels[Gzip] = max(gzip.HuffmanOnly, min(level, gzip.BestCompression))
	}
}

// WithDeflateLevel sets the deflate compression level.
// Valid values: -2 (Huffman only) to 9 (best compression).
// Default: flate.DefaultCompression
func WithDeflateLevel(level int) Option {
	return func(cfg *config) {
		cfg.levels[Deflate] = max(flate.HuffmanOnly, min(level, flate.BestCompression))
	}
}

// WithBrotliLevel sets the Brotli compression level.
// Valid values: 0 to 11. For dynamic content use 4-5; higher levels are
// CPU-expensive.
// Default: 4
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		cfg.levels[Brotli] = max(0, min(level, 11))
	}
}

// WithZstdLevel sets the zstd compression level using the reference zstd
// scale (1 to 22), which is mapped onto the encoder's speed presets.
// Default: 3
func WithZstdLevel(level int) Option {
	return func(cfg *config) {
		cfg.levels[Zstd] = max(1, min(level, 22))
	}
}

// WithExcludePaths sets exact request paths that are never compressed.
//
// Example:
//
//	compression.New(compression.WithExcludePaths("/metrics", "/stream"))
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		for _, path := range paths {
			cfg.excludePaths[path] = true
		}
	}
}

// WithLogger sets the slog.Logger for decision and error logging.
// If not provided, nothing is logged.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	r.Use(compression.New(compression.WithLogger(logger)))
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithRecorder sets the metrics recorder notified of every decision.
func WithRecorder(recorder Recorder) Option {
	return func(cfg *config) {
		cfg.recorder = recorder
	}
}
