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
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultClassifierCacheSize bounds the number of distinct Content-Type
// values whose classification is memoized.
const DefaultClassifierCacheSize = 256

// Classifier decides whether a content type carries text-based data that is
// worth compressing.
type Classifier interface {
	IsTextBased(contentType string) bool
}

// ClassifierFunc adapts a function to the [Classifier] interface.
type ClassifierFunc func(contentType string) bool

// IsTextBased calls f(contentType).
func (f ClassifierFunc) IsTextBased(contentType string) bool {
	return f(contentType)
}

// MediaTypeClassifier is the default [Classifier]. A media type is text-based
// when any of the following holds:
//
//   - the top-level type is text
//   - the subtype ends in +json, +xml or +text
//   - the type is application/javascript
//   - the subtype is json, xml or x-yaml
//   - the type was registered with [NewMediaTypeClassifier]
//
// Parameters such as charset are ignored and matching is case-insensitive.
type MediaTypeClassifier struct {
	extra map[string]struct{}
	cache *lru.Cache
}

// NewMediaTypeClassifier returns a classifier that also accepts the given
// exact media types (for example "application/x-ndjson").
func NewMediaTypeClassifier(extra ...string) *MediaTypeClassifier {
	return newMediaTypeClassifier(DefaultClassifierCacheSize, extra...)
}

func newMediaTypeClassifier(cacheSize int, extra ...string) *MediaTypeClassifier {
	m := &MediaTypeClassifier{
		extra: make(map[string]struct{}, len(extra)),
	}
	for _, t := range extra {
		if t = baseMediaType(t); t != "" {
			m.extra[t] = struct{}{}
		}
	}

	if cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		m.cache, _ = lru.New(cacheSize)
	}

	return m
}

// IsTextBased implements [Classifier].
func (m *MediaTypeClassifier) IsTextBased(contentType string) bool {
	if contentType == "" {
		return false
	}

	if m.cache != nil {
		if v, ok := m.cache.Get(contentType); ok {
			return v.(bool)
		}
	}

	text := m.classify(contentType)
	if m.cache != nil {
		m.cache.Add(contentType, text)
	}

	return text
}

func (m *MediaTypeClassifier) classify(contentType string) bool {
	mediaType := baseMediaType(contentType)
	typ, sub, ok := strings.Cut(mediaType, "/")
	if !ok || typ == "" || sub == "" {
		return false
	}

	if _, ok := m.extra[mediaType]; ok {
		return true
	}

	switch {
	case typ == "text":
		return true
	case mediaType == "application/javascript":
		return true
	case strings.HasSuffix(sub, "+json"),
		strings.HasSuffix(sub, "+xml"),
		strings.HasSuffix(sub, "+text"):
		return true
	case sub == "json", sub == "xml", sub == "x-yaml":
		return true
	}

	return false
}

// baseMediaType strips parameters and normalizes case:
// "Text/HTML; charset=utf-8" becomes "text/html".
func baseMediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return strings.ToLower(strings.TrimSpace(contentType))
}
