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

package exemption

import (
	"log/slog"
	"net/textproto"

	"github.com/samber/lo"
)

// WithPaths replaces the exempt path list. A request is exempt when its URI
// contains any of the given substrings. Empty entries are ignored.
//
// Example:
//
//	exemption.New(exemption.WithPaths("/docs", "/actuator"))
func WithPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.paths = lo.Compact(lo.Uniq(paths))
	}
}

// WithAdditionalPaths appends to the exempt path list, keeping the defaults.
//
// Example:
//
//	exemption.New(exemption.WithAdditionalPaths("/healthz"))
func WithAdditionalPaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.paths = lo.Compact(lo.Uniq(append(cfg.paths, paths...)))
	}
}

// WithHeader sets the marker header name. It is used both as the request
// opt-out header and as the header added to exempt responses.
// Default: Ignore-Encoding.
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.header = textproto.CanonicalMIMEHeaderKey(name)
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithRecorder sets the recorder notified of every exemption.
func WithRecorder(recorder Recorder) Option {
	return func(cfg *config) {
		cfg.recorder = recorder
	}
}
