/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package source abstracts where dataset bytes come from. A Source is
// selected once at the boundary (local path, remote URL, in-memory buffer
// or caller-owned stream); every reader downstream consumes the variants
// identically through Open.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source yields the raw bytes of one dataset.
type Source interface {
	// Name identifies the source for error messages and output naming.
	Name() string
	// Open returns a reader over the source bytes. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// RequestOptions configures remote fetches.
type RequestOptions struct {
	Timeout time.Duration
	Header  http.Header
	// Client overrides the default HTTP client when set.
	Client *http.Client
}

// DefaultRequestOptions returns the fetch settings used when the caller
// does not override them.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		Timeout: 30 * time.Second,
	}
}

// Resolve classifies a raw locator into a concrete source. http and
// https locators fetch remotely, file URLs and bare strings open local
// paths.
func Resolve(input string, opts RequestOptions) Source {
	switch {
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return FromURL(input, opts)
	case strings.HasPrefix(input, "file://"):
		return FromPath(strings.TrimPrefix(input, "file://"))
	default:
		return FromPath(input)
	}
}

// ReadAll opens the source and drains it.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	return data, nil
}

type pathSource struct {
	path string
}

// FromPath returns a source backed by a local file.
func FromPath(path string) Source {
	return &pathSource{path: path}
}

func (s *pathSource) Name() string {
	return s.path
}

func (s *pathSource) Open(_ context.Context) (io.ReadCloser, error) {
	if s.path == "" {
		return nil, &ErrParam{Msg: "empty file path"}
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ErrNotFound{Path: s.path, Err: err}
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	return f, nil
}

type urlSource struct {
	url  string
	opts RequestOptions
}

// FromURL returns a source fetched over HTTP. The fetch happens on Open
// and is not retried.
func FromURL(url string, opts RequestOptions) Source {
	return &urlSource{url: url, opts: opts}
}

func (s *urlSource) Name() string {
	return s.url
}

func (s *urlSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.url == "" {
		return nil, &ErrParam{Msg: "empty URL"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &ErrParam{Msg: fmt.Sprintf("invalid URL %q: %v", s.url, err)}
	}
	if s.opts.Header != nil {
		req.Header = s.opts.Header.Clone()
	}
	client := s.opts.Client
	if client == nil {
		client = &http.Client{Timeout: s.opts.Timeout}
	}
	zap.L().Debug("fetching remote source", zap.String("url", s.url))
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ErrTransport{URL: s.url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &ErrHTTPStatus{URL: s.url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

type bytesSource struct {
	data []byte
}

// FromBytes returns a source over an in-memory buffer. It can be opened
// any number of times.
func FromBytes(data []byte) Source {
	return &bytesSource{data: data}
}

func (s *bytesSource) Name() string {
	return "buffer"
}

func (s *bytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type readerSource struct {
	mu       sync.Mutex
	r        io.Reader
	consumed bool
}

// FromReader returns a source over a caller-owned stream. The stream is
// consumed in place, so the source can be opened only once.
func FromReader(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) Name() string {
	return "stream"
}

func (s *readerSource) Open(_ context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r == nil {
		return nil, &ErrParam{Msg: "nil reader"}
	}
	if s.consumed {
		return nil, &ErrParam{Msg: "stream source already consumed"}
	}
	s.consumed = true
	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(s.r), nil
}
