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
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/arrowio"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/delimited"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/structured"
	"go.uber.org/zap"
)

// parseSeparator converts the --separator flag value to a rune. The flag
// accepts a single character, or 'tab' and '\t' for tab-separated input.
func parseSeparator(s string) (rune, error) {
	switch s {
	case "tab", "\\t":
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("separator must be a single character or 'tab', got %q", s)
	}
	return runes[0], nil
}

// ingestOptions assembles delimited parsing options from the active config.
func ingestOptions(cfg *config.Config) (delimited.Options, error) {
	opts := delimited.DefaultOptions()
	if cfg.Ingest.Separator != "" {
		sep, err := parseSeparator(cfg.Ingest.Separator)
		if err != nil {
			return opts, err
		}
		opts.Separator = sep
	}
	opts.HasHeader = cfg.Ingest.HasHeader
	opts.ColumnNames = cfg.Ingest.ColumnNames
	opts.NullLiterals = cfg.Ingest.NullLiterals
	if cfg.Ingest.ChunkSize > 0 {
		opts.ChunkSize = cfg.Ingest.ChunkSize
	}
	opts.RowLimit = cfg.Ingest.RowLimit
	return opts, nil
}

// ingestFrame reads one input into a frame. The format comes from the
// --input-format flag when set, otherwise from the input's extension.
func ingestFrame(ctx context.Context, input string, cfg *config.Config) (*frame.Frame, []*frame.CastError, error) {
	src := source.Resolve(input, source.RequestOptions{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})

	format := inputFormat
	if format == "" {
		format = serialize.DetectFormat(src.Name())
	}

	switch format {
	case serialize.FormatCSV, serialize.FormatTSV:
		opts, err := ingestOptions(cfg)
		if err != nil {
			return nil, nil, err
		}
		if format == serialize.FormatTSV && opts.Separator == 0 {
			opts.Separator = '\t'
		}
		return delimited.Read(ctx, src, opts)
	case serialize.FormatJSON:
		layout, err := structured.ParseLayout(jsonLayout)
		if err != nil {
			return nil, nil, err
		}
		f, err := structured.Read(ctx, src, structured.Options{Layout: layout})
		return f, nil, err
	case serialize.FormatParquet:
		data, err := source.ReadAll(ctx, src)
		if err != nil {
			return nil, nil, err
		}
		f, err := arrowio.ReadParquet(ctx, data)
		return f, nil, err
	default:
		return nil, nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// logCastErrors reports cells that did not fit their column type and were
// read as null. The read itself still succeeds.
func logCastErrors(input string, casts []*frame.CastError) {
	if len(casts) == 0 {
		return
	}
	zap.L().Warn("cells did not fit their column type and were read as null",
		zap.String("input", input),
		zap.Int("cells", len(casts)),
		zap.String("first", casts[0].Error()))
}
