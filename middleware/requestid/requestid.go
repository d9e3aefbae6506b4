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

package requestid

import (
	"context"
	"crypto/rand"
	"net/textproto"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"rivaas.dev/router"
)

// DefaultHeader carries the request ID in both directions.
const DefaultHeader = "X-Request-ID"

// maxClientIDLength bounds accepted client IDs so they stay log friendly.
const maxClientIDLength = 128

type contextKey struct{}

// Option configures the middleware.
type Option func(*config)

type config struct {
	header        string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		header:        DefaultHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// WithHeader sets the header name. Default: X-Request-ID.
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.header = textproto.CanonicalMIMEHeaderKey(name)
		}
	}
}

// WithGenerator replaces the ID generator.
func WithGenerator(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.generator = fn
		}
	}
}

// WithULID generates lexicographically sortable ULIDs instead of UUIDv7.
func WithULID() Option {
	return WithGenerator(generateULID)
}

// WithAllowClientID controls whether an incoming header value is reused.
// Default: true.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) { cfg.allowClientID = allow }
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// New returns middleware that assigns every request an ID, echoes it in the
// response header and stores it in the request context.
//
//	r.Use(requestid.New())
//	r.GET("/api/data", func(c *router.Context) {
//	    id := requestid.Get(c)
//	})
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *router.Context) {
		var id string
		if cfg.allowClientID {
			id = c.Request.Header.Get(cfg.header)
			if len(id) > maxClientIDLength {
				id = ""
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Response.Header().Set(cfg.header, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), contextKey{}, id))

		c.Next()
	}
}

// Get returns the request ID stored by the middleware, or "".
func Get(c *router.Context) string {
	return FromContext(c.Request.Context())
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
