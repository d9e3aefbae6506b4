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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaTypeClassifier_IsTextBased(t *testing.T) {
	t.Parallel()

	c := NewMediaTypeClassifier()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/CSV", true},
		{"application/json", true},
		{"application/problem+json", true},
		{"application/atom+xml", true},
		{"application/xml", true},
		{"text/xml", true},
		{"application/x-yaml", true},
		{"application/javascript", true},
		{"application/vnd.custom+text", true},
		{"image/svg+xml", true},
		{"image/png", false},
		{"application/octet-stream", false},
		{"application/x-www-form-urlencoded", false},
		{"multipart/form-data; boundary=x", false},
		{"application/pdf", false},
		{"garbage", false},
		{"", false},
		{"/json", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.IsTextBased(tt.contentType))
		})
	}
}

func TestMediaTypeClassifier_ExtraTypes(t *testing.T) {
	t.Parallel()

	c := NewMediaTypeClassifier("Application/X-NDJSON; charset=utf-8", "")

	assert.True(t, c.IsTextBased("application/x-ndjson"))
	assert.False(t, c.IsTextBased("application/x-protobuf"))
}

func TestMediaTypeClassifier_CacheIsStable(t *testing.T) {
	t.Parallel()

	c := newMediaTypeClassifier(2)

	// Exceed the cache size to force evictions; results must not change.
	for range 3 {
		assert.True(t, c.IsTextBased("text/plain"))
		assert.False(t, c.IsTextBased("image/gif"))
		assert.True(t, c.IsTextBased("application/json"))
	}
}

func TestMediaTypeClassifier_NoCache(t *testing.T) {
	t.Parallel()

	c := newMediaTypeClassifier(0)
	assert.Nil(t, c.cache)
	assert.True(t, c.IsTextBased("text/plain"))
}

func TestWithClassifier(t *testing.T) {
	t.Parallel()

	p := NewPolicy(WithClassifier(ClassifierFunc(func(ct string) bool {
		return strings.HasPrefix(ct, "image/")
	})))

	assert.False(t, p.ShouldSkip("image/png", UnknownLength))
	assert.True(t, p.ShouldSkip("text/plain", UnknownLength))
}

func TestWithTextTypes(t *testing.T) {
	t.Parallel()

	p := NewPolicy(WithTextTypes("application/graphql"))

	assert.False(t, p.ShouldSkip("application/graphql", UnknownLength))
}
