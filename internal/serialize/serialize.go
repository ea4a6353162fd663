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

// Package serialize turns frames into output bytes and routes them to a
// destination. Encoders register themselves by format name from their
// own packages, so importers pull in only the formats they link.
package serialize

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"go.uber.org/zap"
)

const (
	FormatCSV     = "csv"
	FormatTSV     = "tsv"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// Options selects the output format and its knobs.
type Options struct {
	// Format names a registered encoder. Empty means csv.
	Format string
	// Separator overrides the delimited formats' separator.
	Separator rune
	// Layout is the JSON table shape: auto, column or row.
	Layout string
}

// Encoder renders a frame in one output format.
type Encoder interface {
	Encode(f *frame.Frame, opts Options) ([]byte, error)
	// Extension is the canonical file extension including the dot.
	Extension() string
}

var (
	encoders = make(map[string]Encoder)
	mu       sync.RWMutex
)

func RegisterEncoder(format string, enc Encoder) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := encoders[format]; exists {
		zap.L().Warn("encoder is being overwritten", zap.String("format", format))
	}
	encoders[format] = enc
}

func GetEncoder(format string) (Encoder, error) {
	if format == "" {
		format = FormatCSV
	}
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	mu.RLock()
	defer mu.RUnlock()
	enc, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return enc, nil
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFormat guesses a format name from a file name's extension,
// falling back to csv.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".tsv", ".tab":
		return FormatTSV
	case ".parquet":
		return FormatParquet
	default:
		return FormatCSV
	}
}

// EnsureExtension appends ext when name has no extension of its own.
func EnsureExtension(name, ext string) string {
	if filepath.Ext(name) == "" {
		return name + ext
	}
	return name
}
