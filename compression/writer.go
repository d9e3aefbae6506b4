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
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
)

// countingWriter counts the bytes that reach the client.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

// compressWriter wraps the response writer of a single request. The
// skip/compress decision is made once, when headers are finalized, and is
// reused for every body chunk that follows.
type compressWriter struct {
	http.ResponseWriter
	m        *middleware
	ctx      context.Context
	encoding Encoding
	pool     *sync.Pool
	enc      encoder
	sink     countingWriter

	wroteHeader bool
	decided     bool
	decision    Decision
	written     int64
}

// WriteHeader finalizes headers and makes the compression decision.
func (cw *compressWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}

	// Informational responses precede the real header block.
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		cw.ResponseWriter.WriteHeader(code)
		return
	}

	cw.decide(code)
	cw.wroteHeader = true
	cw.ResponseWriter.WriteHeader(code)
}

// Write writes body bytes, through the codec when compressing.
func (cw *compressWriter) Write(data []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}

	if cw.enc == nil {
		return cw.ResponseWriter.Write(data)
	}

	n, err := cw.enc.Write(data)
	cw.written += int64(n)

	return n, err
}

// Flush flushes buffered codec output and the underlying writer.
func (cw *compressWriter) Flush() {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}

	if cw.enc != nil {
		if err := cw.enc.Flush(); err != nil {
			cw.m.logError(cw.ctx, "compression flush failed", cw.encoding, err)
		}
	}

	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the original writer for http.ResponseController.
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// decide evaluates the response once. Status guards and an existing
// Content-Encoding take precedence over the policy.
func (cw *compressWriter) decide(code int) {
	if cw.decided {
		return
	}
	cw.decided = true

	h := cw.ResponseWriter.Header()
	switch {
	case skipStatus(code):
		cw.decision = skip(ReasonStatus)
	case h.Get("Content-Encoding") != "":
		cw.decision = skip(ReasonAlreadyEncoded)
	default:
		cw.decision = cw.m.policy.DecideHeader(h)
	}

	if cw.decision.Skip {
		cw.m.observe(cw.ctx, Identity, cw.decision)
		return
	}

	h.Del("Content-Length")
	h.Set("Content-Encoding", string(cw.encoding))
	if !varyContains(h, "Accept-Encoding") {
		h.Add("Vary", "Accept-Encoding")
	}

	cw.sink.w = cw.ResponseWriter
	cw.enc = cw.pool.Get().(encoder)
	cw.enc.Reset(&cw.sink)

	cw.m.observe(cw.ctx, string(cw.encoding), cw.decision)
}

// decideUnwritten records the decision for a handler that returned without
// writing. Headers are left alone: an empty body is never compressed.
func (cw *compressWriter) decideUnwritten() {
	if cw.decided {
		return
	}
	cw.decided = true

	h := cw.ResponseWriter.Header()
	switch {
	case h.Get("Content-Encoding") != "":
		cw.decision = skip(ReasonAlreadyEncoded)
	default:
		cw.decision = cw.m.policy.DecideHeader(h)
		if !cw.decision.Skip {
			cw.decision = skip(ReasonEmptyBody)
		}
	}

	cw.m.observe(cw.ctx, Identity, cw.decision)
}

// Close finalizes the codec stream and returns the codec to its pool.
// It is a no-op when the response was not compressed.
func (cw *compressWriter) Close() error {
	if cw.enc == nil {
		return nil
	}

	err := cw.enc.Close()
	// Reset before returning to pool to drop the reference to this response
	cw.enc.Reset(io.Discard)
	cw.pool.Put(cw.enc)
	cw.enc = nil

	cw.m.recordBytes(cw.ctx, cw.encoding, cw.written, cw.sink.n)

	return err
}

// skipStatus returns true if the status code should not be compressed.
func skipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent ||
		code == http.StatusSwitchingProtocols
}

func varyContains(h http.Header, token string) bool {
	for _, v := range h.Values("Vary") {
		for _, field := range strings.Split(v, ",") {
			if f := strings.TrimSpace(field); f == "*" || strings.EqualFold(f, token) {
				return true
			}
		}
	}

	return false
}
