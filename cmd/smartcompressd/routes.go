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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/router"

	"github.com/lineup-dev/smartcompress/compression"
	"github.com/lineup-dev/smartcompress/config"
	"github.com/lineup-dev/smartcompress/exemption"
	"github.com/lineup-dev/smartcompress/metrics"
	"github.com/lineup-dev/smartcompress/middleware/accesslog"
	"github.com/lineup-dev/smartcompress/middleware/recovery"
	"github.com/lineup-dev/smartcompress/middleware/requestid"
	"github.com/lineup-dev/smartcompress/problem"
	"github.com/lineup-dev/smartcompress/tracing"
)

// problemBaseURL prefixes problem type URIs in error responses.
const problemBaseURL = "https://smartcompress.lineup.dev/problems"

var problems = problem.NewRFC9457(problemBaseURL)

var errBadCount = problem.WithCode(
	problem.WithStatus(errors.New("count must be between 0 and 10000"), http.StatusBadRequest),
	"invalid-count",
)

// newRouter mounts the middleware stack and the demo routes.
//
// Order matters: the server span covers everything after the request ID,
// access log and metrics see the status and bytes that reach
// the client, recovery answers panics through the uncompressed writer, and
// exemption sits inside compression so its marker lands before the
// compression decision.
func newRouter(settings *config.Settings, log *slog.Logger, recorder *metrics.Recorder, tracer *tracing.Tracer) (*router.Router, error) {
	r, err := router.New()
	if err != nil {
		return nil, err
	}

	metricsPath := settings.Metrics.Path

	r.Use(
		requestid.New(),
		tracer.Middleware(
			tracing.WithExcludePaths(metricsPath),
			tracing.WithHeaders(requestid.DefaultHeader),
		),
		accesslog.New(
			accesslog.WithLogger(log),
			accesslog.WithExcludePaths(metricsPath),
			accesslog.WithSlowThreshold(time.Second),
		),
		recorder.Middleware(metrics.WithExcludePaths(metricsPath)),
		recovery.New(recovery.WithLogger(log)),
		compression.New(append(settings.CompressionOptions(),
			compression.WithLogger(log),
			compression.WithRecorder(recorder),
		)...),
		exemption.New(append(settings.ExemptionOptions(),
			exemption.WithLogger(log),
			exemption.WithRecorder(recorder),
		)...),
	)

	if recorder.Provider() == metrics.PrometheusProvider {
		h, hErr := recorder.Handler()
		if hErr != nil {
			return nil, hErr
		}
		r.GET(metricsPath, func(c *router.Context) {
			h.ServeHTTP(c.Response, c.Request)
		})
	}

	r.GET("/api/data", apiData)
	r.HEAD("/api/data", apiData)
	r.GET("/api/image", apiImage)
	r.GET("/info/status", infoStatus(settings))
	r.GET("/swagger/index.html", swaggerIndex)
	r.GET("/lineupdashboardservice/summary", dashboardSummary)

	r.NoRoute(func(c *router.Context) {
		_ = problem.Write(c.Response, c.Request, problems,
			problem.WithCode(problem.WithStatus(nil, http.StatusNotFound), "not-found"))
	})

	return r, nil
}

// writeJSON is c.JSON plus Content-Length, which lets the compression
// threshold apply to small documents.
func writeJSON(c *router.Context, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(c.Response, err.Error(), http.StatusInternalServerError)
		return
	}

	h := c.Response.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	c.Response.WriteHeader(status)
	_, _ = c.Response.Write(body)
}

type item struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// apiData returns a JSON document well above the default threshold.
// ?count= selects the number of items, so small responses can be requested
// too.
func apiData(c *router.Context) {
	count := 100
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 10000 {
			_ = problem.Write(c.Response, c.Request, problems, errBadCount)
			return
		}
		count = n
	}

	items := make([]item, count)
	for i := range items {
		items[i] = item{
			ID:          i + 1,
			Name:        fmt.Sprintf("item-%04d", i+1),
			Description: "Repetitive text compresses well, which is the point of this endpoint.",
			Tags:        []string{"demo", "compressible"},
			UpdatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	writeJSON(c, http.StatusOK, map[string]any{"items": items, "count": count})
}

// apiImage returns random bytes labelled image/png, which are never
// compressed.
func apiImage(c *router.Context) {
	body := make([]byte, 4096)
	for i := range body {
		body[i] = byte(rand.IntN(256)) //nolint:gosec // demo payload
	}

	c.Response.Header().Set("Content-Type", "image/png")
	c.Response.Header().Set("Content-Length", strconv.Itoa(len(body)))
	c.Response.WriteHeader(http.StatusOK)
	_, _ = c.Response.Write(body)
}

func infoStatus(settings *config.Settings) router.HandlerFunc {
	started := time.Now()

	return func(c *router.Context) {
		writeJSON(c, http.StatusOK, map[string]any{
			"status":    "ok",
			"service":   settings.Logging.Service.Name,
			"version":   serviceVersion(settings),
			"uptime":    time.Since(started).Round(time.Second).String(),
			"threshold": settings.Compression.Threshold,
			"encodings": settings.Compression.Encodings,
		})
	}
}

func swaggerIndex(c *router.Context) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>smartcompress API</title></head><body><ul>")
	for _, p := range []string{"/api/data", "/api/image", "/info/status"} {
		fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>", p, p)
	}
	b.WriteString(strings.Repeat("<!-- padding so the page exceeds the compression threshold -->\n", 32))
	b.WriteString("</ul></body></html>")

	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response.Header().Set("Content-Length", strconv.Itoa(b.Len()))
	c.Response.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(c.Response, b.String())
}

func dashboardSummary(c *router.Context) {
	rows := make([]map[string]any, 50)
	for i := range rows {
		rows[i] = map[string]any{"widget": fmt.Sprintf("widget-%02d", i), "value": i * 10}
	}

	writeJSON(c, http.StatusOK, map[string]any{"rows": rows})
}
