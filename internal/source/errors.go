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
package source

import "fmt"

// ErrParam indicates an invalid argument such as an empty path or a
// stream that was already consumed.
type ErrParam struct {
	Msg string
}

func (e *ErrParam) Error() string {
	return fmt.Sprintf("invalid parameter: %s", e.Msg)
}

// ErrNotFound indicates a local path that does not exist.
type ErrNotFound struct {
	Path string
	Err  error
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

func (e *ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates a remote fetch that completed with a status
// other than 200 OK. Redirect-class statuses are included; the response
// body is discarded.
type ErrHTTPStatus struct {
	URL    string
	Status int
}

func (e *ErrHTTPStatus) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d fetching %s", e.Status, e.URL)
}

// ErrTransport indicates a remote fetch that failed before any response
// arrived, such as a DNS failure or timeout. Fetches are not retried.
type ErrTransport struct {
	URL string
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}
