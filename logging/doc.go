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

// Package logging builds the structured [slog.Logger] used by smartcompressd.
//
// # Basic Usage
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("smartcompressd"),
//	    logging.WithServiceVersion(version),
//	)
//	logger.Logger().Info("listening", "addr", ":8080")
//
// The json handler is meant for production, text writes logfmt style lines and
// console writes colored lines for local development.
//
// # Levels
//
//	level, err := logging.ParseLevel("warning") // LevelWarn
//	logger.SetLevel(logging.LevelDebug)
//
// # Sensitive Data Redaction
//
// Values of the keys password, token, secret, api_key and authorization are
// replaced with ***REDACTED*** in every handler. [WithReplaceAttr] runs after
// redaction.
//
// # Trace Correlation
//
// Records logged with a context that carries a valid OpenTelemetry span get
// trace_id and span_id attributes:
//
//	logger.Logger().InfoContext(r.Context(), "compressed response")
package logging
