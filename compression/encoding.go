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
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoding is a Content-Encoding token.
type Encoding string

const (
	Brotli  Encoding = "br"
	Zstd    Encoding = "zstd"
	Gzip    Encoding = "gzip"
	Deflate Encoding = "deflate"
)

// Identity is the label used when a response is written without encoding.
const Identity = "identity"

// Default compression levels.
const (
	DefaultGzipLevel    = gzip.DefaultCompression
	DefaultDeflateLevel = flate.DefaultCompression
	DefaultBrotliLevel  = 4 // conservative for dynamic content
	DefaultZstdLevel    = 3
)

// DefaultEncodings is the server preference order used to break ties between
// encodings the client accepts with equal quality.
var DefaultEncodings = []Encoding{Brotli, Zstd, Gzip, Deflate}

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, bool) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case Brotli, Zstd, Gzip, Deflate:
		return e, true
	}

	return "", false
}

// negotiate picks the encoding with the highest quality value among those
// offered by the server. Ties keep the server's preference order. It returns
// "" when nothing acceptable is offered.
func negotiate(acceptEncoding string, offered []Encoding) Encoding {
	if strings.TrimSpace(acceptEncoding) == "" {
		return ""
	}

	qualities := parseAcceptEncoding(acceptEncoding)
	wildcard, hasWildcard := qualities["*"]

	var (
		best  Encoding
		bestQ float64
	)
	for _, enc := range offered {
		q, ok := qualities[string(enc)]
		if !ok && enc == Gzip {
			q, ok = qualities["x-gzip"]
		}
		if !ok && hasWildcard {
			q, ok = wildcard, true
		}
		if !ok || q <= 0 {
			continue
		}
		if q > bestQ {
			best, bestQ = enc, q
		}
	}

	return best
}

// parseAcceptEncoding returns the quality value of every coding listed in an
// Accept-Encoding header. Codings without a q parameter, or with one that
// does not parse, get 1.0.
func parseAcceptEncoding(header string) map[string]float64 {
	qualities := make(map[string]float64)

	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		q := 1.0
		for _, param := range strings.Split(params, ";") {
			key, value, ok := strings.Cut(param, "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
				continue
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				q = f
			}
		}

		if prev, seen := qualities[name]; !seen || q > prev {
			qualities[name] = q
		}
	}

	return qualities
}

// encoder is the subset shared by every codec writer we pool.
type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

type poolKey struct {
	encoding Encoding
	level    int
}

var (
	encoderPools   = make(map[poolKey]*sync.Pool)
	encoderPoolsMu sync.RWMutex
)

// encoderPool returns the pool for the given encoding and level.
func encoderPool(enc Encoding, level int) *sync.Pool {
	key := poolKey{encoding: enc, level: level}

	encoderPoolsMu.RLock()
	pool, exists := encoderPools[key]
	encoderPoolsMu.RUnlock()

	if exists {
		return pool
	}

	encoderPoolsMu.Lock()
	defer encoderPoolsMu.Unlock()

	// Double-check after acquiring write lock
	if pool, exists := encoderPools[key]; exists {
		return pool
	}

	pool = &sync.Pool{
		New: func() any {
			return newEncoder(enc, level)
		},
	}
	encoderPools[key] = pool

	return pool
}

// newEncoder creates a codec writer. Levels are clamped by the options, so a
// constructor error only happens for out-of-range input and falls back to the
// codec's default level.
func newEncoder(enc Encoding, level int) encoder {
	switch enc {
	case Brotli:
		return brotli.NewWriterLevel(io.Discard, level)
	case Zstd:
		w, err := zstd.NewWriter(io.Discard,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			w, _ = zstd.NewWriter(io.Discard, zstd.WithEncoderConcurrency(1))
		}

		return w
	case Deflate:
		w, err := flate.NewWriter(io.Discard, level)
		if err != nil {
			w, _ = flate.NewWriter(io.Discard, flate.DefaultCompression)
		}

		return w
	default:
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			w = gzip.NewWriter(io.Discard)
		}

		return w
	}
}
