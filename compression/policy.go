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
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

const (
	// HeaderIgnoreEncoding is the exemption marker. A client may send it to opt
	// out of compression, and the exemption filter sets it on responses that
	// must be written uncompressed.
	HeaderIgnoreEncoding = "Ignore-Encoding"

	// DefaultThreshold is the minimum body size in bytes that is compressed
	// when the length is known up front.
	DefaultThreshold = 1024

	// UnknownLength marks a body whose size is not known when headers are
	// finalized. Any negative length is treated the same way.
	UnknownLength int64 = -1
)

// Reason explains a compression decision.
type Reason string

const (
	ReasonCompress       Reason = "compress"
	ReasonExempt         Reason = "exempt"
	ReasonNoContentType  Reason = "no-content-type"
	ReasonNotText        Reason = "not-text"
	ReasonExcludedType   Reason = "excluded-type"
	ReasonBelowThreshold Reason = "below-threshold"
	ReasonStatus         Reason = "status"
	ReasonAlreadyEncoded Reason = "already-encoded"
	ReasonHeadRequest    Reason = "head-request"
	ReasonExcludedPath   Reason = "excluded-path"
	ReasonNotAccepted    Reason = "not-accepted"
	ReasonEmptyBody      Reason = "empty-body"
)

// Decision is the outcome of evaluating a response against a [Policy].
type Decision struct {
	Skip   bool
	Reason Reason
}

func skip(reason Reason) Decision { return Decision{Skip: true, Reason: reason} }

// Policy decides whether a response body should go through a compression
// codec. It holds no per-response state and is safe for concurrent use.
type Policy struct {
	threshold    int64
	classifier   Classifier
	marker       string
	excludeTypes map[string]bool
}

// NewPolicy builds the decision policy from the same options accepted by
// [New]. Options that only affect the middleware (encodings, levels, paths)
// are ignored.
func NewPolicy(opts ...Option) *Policy {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg.buildPolicy()
}

// Threshold returns the configured minimum size in bytes.
func (p *Policy) Threshold() int64 {
	return p.threshold
}

// ShouldSkip reports whether a body with the given content type and length
// should be written uncompressed. An empty contentType means the header is
// absent; a negative contentLength means the length is unknown.
func (p *Policy) ShouldSkip(contentType string, contentLength int64) bool {
	return p.Decide(contentType, contentLength).Skip
}

// ShouldSkipHeader reports whether a response with the given headers should
// be written uncompressed. The exemption marker short-circuits the decision
// regardless of its value.
func (p *Policy) ShouldSkipHeader(h http.Header) bool {
	return p.DecideHeader(h).Skip
}

// Decide is [Policy.ShouldSkip] with the reason attached.
func (p *Policy) Decide(contentType string, contentLength int64) Decision {
	if contentType == "" {
		return skip(ReasonNoContentType)
	}

	if len(p.excludeTypes) > 0 && p.excludeTypes[baseMediaType(contentType)] {
		return skip(ReasonExcludedType)
	}

	if !p.classifier.IsTextBased(contentType) {
		return skip(ReasonNotText)
	}

	if contentLength >= 0 && contentLength < p.threshold {
		return skip(ReasonBelowThreshold)
	}

	return Decision{Reason: ReasonCompress}
}

// DecideHeader is [Policy.ShouldSkipHeader] with the reason attached.
func (p *Policy) DecideHeader(h http.Header) Decision {
	if HasHeader(h, p.marker) {
		return skip(ReasonExempt)
	}

	return p.Decide(h.Get("Content-Type"), contentLength(h))
}

// HasHeader reports whether name is present in h, ignoring case and value.
// An empty value still counts as present.
func HasHeader(h http.Header, name string) bool {
	if _, ok := h[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return true
	}

	// Fall back for keys that were stored without canonicalization.
	for key := range h {
		if strings.EqualFold(key, name) {
			return true
		}
	}

	return false
}

// contentLength parses Content-Length, returning UnknownLength when it is
// missing or malformed.
func contentLength(h http.Header) int64 {
	v := h.Get("Content-Length")
	if v == "" {
		return UnknownLength
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return UnknownLength
	}

	return n
}
