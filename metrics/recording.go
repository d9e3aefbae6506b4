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

package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func (r *Recorder) initializeInstruments() error {
	var err error

	if r.decisions, err = r.meter.Int64Counter(MetricDecisions,
		metric.WithDescription("Responses by negotiated encoding and policy reason")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricDecisions, err)
	}
	if r.exemptions, err = r.meter.Int64Counter(MetricExemptions,
		metric.WithDescription("Responses marked as exempt from compression, by cause")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricExemptions, err)
	}
	if r.bytesUncompressed, err = r.meter.Int64Counter(MetricBytesUncompressed,
		metric.WithDescription("Body bytes written by handlers to compressed responses"),
		metric.WithUnit("By")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricBytesUncompressed, err)
	}
	if r.bytesCompressed, err = r.meter.Int64Counter(MetricBytesCompressed,
		metric.WithDescription("Encoded bytes sent for compressed responses"),
		metric.WithUnit("By")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricBytesCompressed, err)
	}
	if r.finalizeErrors, err = r.meter.Int64Counter(MetricFinalizeErrors,
		metric.WithDescription("Encoder close failures")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricFinalizeErrors, err)
	}
	if r.httpRequests, err = r.meter.Int64Counter(MetricHTTPRequests,
		metric.WithDescription("HTTP requests by method and status class")); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricHTTPRequests, err)
	}
	if r.httpDuration, err = r.meter.Float64Histogram(MetricHTTPDuration,
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...)); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetricHTTPDuration, err)
	}

	return nil
}

func (r *Recorder) attrs(extra ...attribute.KeyValue) metric.MeasurementOption {
	all := make([]attribute.KeyValue, 0, len(r.commonAttrs)+len(extra))
	all = append(all, r.commonAttrs...)
	all = append(all, extra...)

	return metric.WithAttributes(all...)
}

// RecordDecision counts one response. encoding is the chosen content coding
// or "identity".
func (r *Recorder) RecordDecision(ctx context.Context, encoding, reason string) {
	r.decisions.Add(ctx, 1, r.attrs(
		attribute.String("encoding", encoding),
		attribute.String("reason", reason),
	))
}

// RecordBytes adds the body sizes of one compressed response.
func (r *Recorder) RecordBytes(ctx context.Context, encoding string, uncompressed, compressed int64) {
	enc := attribute.String("encoding", encoding)
	r.bytesUncompressed.Add(ctx, uncompressed, r.attrs(enc))
	r.bytesCompressed.Add(ctx, compressed, r.attrs(enc))
}

// RecordFinalizeError counts an encoder that failed to close.
func (r *Recorder) RecordFinalizeError(ctx context.Context, encoding string) {
	r.finalizeErrors.Add(ctx, 1, r.attrs(attribute.String("encoding", encoding)))
}

// RecordExemption counts one exempt response.
func (r *Recorder) RecordExemption(ctx context.Context, cause string) {
	r.exemptions.Add(ctx, 1, r.attrs(attribute.String("cause", cause)))
}

// RecordRequest records one finished HTTP request.
func (r *Recorder) RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	opt := r.attrs(
		attribute.String("http.method", method),
		attribute.String("http.status_class", statusClass(status)),
	)
	r.httpRequests.Add(ctx, 1, opt)
	r.httpDuration.Record(ctx, elapsed.Seconds(), opt)
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}

	return strconv.Itoa(status/100) + "xx"
}
