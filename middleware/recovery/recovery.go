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

package recovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"
	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/middleware/requestid"
	"github.com/lineup-dev/smartcompress/problem"
)

// Option configures the recovery middleware.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	handler     func(c *router.Context, err any)
	stackTrace  bool
	stackSize   int
	prettyStack *bool
	stderr      io.Writer
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		handler:    defaultHandler,
		stackTrace: true,
		stackSize:  4 << 10,
		stderr:     os.Stderr,
	}
}

var internalError = &problem.Simple{Message: "Internal server error"}

// defaultHandler answers with a JSON 500 unless the response has already
// started. The panic value never reaches the client.
func defaultHandler(c *router.Context, err any) {
	if w, ok := c.Response.(interface{ Written() bool }); ok && w.Written() {
		return
	}
	_ = problem.Write(c.Response, c.Request, internalError,
		problem.WithCode(problem.WithStatus(fmt.Errorf("panic: %v", err), http.StatusInternalServerError), "INTERNAL_ERROR"))
}

// New returns a middleware that turns panics in later handlers into a 500
// response. The panic is logged with a stack trace and recorded on the active
// span. http.ErrAbortHandler is re-raised so net/http can abort the
// connection.
//
// Register it after the access log and metrics middleware so they observe
// the 500, and before compression so the error body goes through the
// original writer.
func New(opts ...Option) router.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	pretty := cfg.prettyStack != nil && *cfg.prettyStack
	if cfg.prettyStack == nil {
		if f, ok := cfg.stderr.(*os.File); ok {
			pretty = term.IsTerminal(int(f.Fd()))
		}
	}

	return func(c *router.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			//nolint:errorlint // sentinel compared by identity, as net/http does
			if err == http.ErrAbortHandler {
				panic(err)
			}

			ctx := c.Request.Context()
			markSpan(ctx, err)

			var stack []byte
			if cfg.stackTrace {
				stack = debug.Stack()
				if len(stack) > cfg.stackSize {
					stack = stack[:cfg.stackSize]
				}
			}

			if cfg.logger != nil {
				cfg.logger.ErrorContext(ctx, "panic recovered",
					slog.String("panic", fmt.Sprintf("%v", err)),
					slog.String("type", fmt.Sprintf("%T", err)),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("request_id", requestid.FromContext(ctx)),
				)

				if len(stack) > 0 {
					frames := parseFrames(stack)
					if pretty {
						printStack(cfg.stderr, err, frames)
					} else {
						cfg.logger.ErrorContext(ctx, "stack trace",
							slog.Any("frames", frames.strings()),
						)
					}
				}
			}

			if cfg.handler != nil {
				cfg.handler(c, err)
			}
		}()

		c.Next()
	}
}

func markSpan(ctx context.Context, err any) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	span.SetStatus(codes.Error, "panic recovered")
	span.SetAttributes(
		attribute.Bool("exception.escaped", true),
		attribute.String("exception.type", fmt.Sprintf("%T", err)),
		attribute.String("exception.message", fmt.Sprintf("%v", err)),
	)
	if e, ok := err.(error); ok {
		span.RecordError(e)
	}
}

type frame struct {
	function string
	location string
}

type frames []frame

func (f frames) strings() []string {
	out := make([]string, len(f))
	for i, fr := range f {
		out[i] = fr.function + " " + fr.location
	}
	return out
}

// parseFrames reads the function/location line pairs of a debug.Stack dump,
// dropping the goroutine header and the runtime panic machinery. A truncated
// final pair is kept with an empty location.
func parseFrames(stack []byte) frames {
	lines := strings.Split(strings.TrimSpace(string(stack)), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "goroutine ") {
		lines = lines[1:]
	}

	var out frames
	for i := 0; i < len(lines); i += 2 {
		fn := strings.TrimSpace(lines[i])
		loc := ""
		if i+1 < len(lines) {
			loc = strings.TrimSpace(lines[i+1])
			if j := strings.LastIndex(loc, " +0x"); j > 0 {
				loc = loc[:j]
			}
		}

		if strings.HasPrefix(fn, "runtime/debug.Stack") || strings.HasPrefix(fn, "panic(") {
			continue
		}
		out = append(out, frame{function: fn, location: loc})
	}

	return out
}

func printStack(w io.Writer, err any, f frames) {
	red := color.New(color.FgRed, color.Bold)
	fn := color.New(color.FgCyan)
	loc := color.New(color.Faint)

	_, _ = red.Fprintf(w, "panic: %v\n\n", err)
	for _, fr := range f {
		_, _ = fn.Fprintf(w, "  %s\n", fr.function)
		_, _ = loc.Fprintf(w, "      %s\n", fr.location)
	}
	_, _ = fmt.Fprintln(w)
}
