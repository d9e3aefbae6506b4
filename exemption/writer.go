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

import "net/http"

// markingWriter sets the marker header once, immediately before the wrapped
// writer's headers are finalized.
type markingWriter struct {
	http.ResponseWriter
	header string
	marked bool
	onMark func()
}

func (mw *markingWriter) mark() {
	if mw.marked {
		return
	}
	mw.marked = true

	mw.ResponseWriter.Header().Set(mw.header, MarkerValue)
	if mw.onMark != nil {
		mw.onMark()
	}
}

func (mw *markingWriter) WriteHeader(code int) {
	mw.mark()
	mw.ResponseWriter.WriteHeader(code)
}

func (mw *markingWriter) Write(data []byte) (int, error) {
	mw.mark()
	return mw.ResponseWriter.Write(data)
}

func (mw *markingWriter) Flush() {
	mw.mark()
	if f, ok := mw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the original writer for http.ResponseController.
func (mw *markingWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}
