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

// Package delimited parses and writes separator-delimited text such as
// CSV and TSV. Reading is bulk (Read) or block-wise (Stream); both paths
// share the same separator sniffing, header handling and type inference.
package delimited

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
)

// DefaultChunkSize is the number of rows per block when streaming.
const DefaultChunkSize = 1024

// Options controls parsing.
type Options struct {
	// Separator is the field separator. Zero means sniff it from the
	// first line of the input.
	Separator rune
	// HasHeader treats the first row as column names.
	HasHeader bool
	// ColumnNames overrides the header names, or supplies names for
	// headerless input. Headerless input without names gets column_1,
	// column_2 and so on.
	ColumnNames []string
	// RowLimit stops reading after this many data rows. Zero reads all.
	RowLimit int
	// ChunkSize is the rows per block when streaming.
	ChunkSize int
	// NullLiterals lists tokens treated as null besides the empty string.
	NullLiterals []string
	// Types pins column types instead of inferring them.
	Types []frame.DataType
}

// DefaultOptions returns the parsing defaults: sniffed separator, header
// row present and 1024-row blocks.
func DefaultOptions() Options {
	return Options{
		HasHeader: true,
		ChunkSize: DefaultChunkSize,
	}
}

// Read parses the whole source into a single frame. Any cell that does
// not fit its column's inferred or pinned type becomes null and is
// reported in the returned cast errors. A malformed row fails the read
// and no frame is returned.
func Read(ctx context.Context, src source.Source, opts Options) (*frame.Frame, []*frame.CastError, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	rr, err := newRowReader(rc, opts)
	if err != nil {
		return nil, nil, err
	}
	var rows [][]string
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, rec)
	}
	return frame.Build(rr.names, rows, frame.BuildOptions{
		Types:        opts.Types,
		NullLiterals: opts.NullLiterals,
	})
}

// rowReader wraps a csv.Reader with separator sniffing, header and name
// resolution, width checking and the row limit.
type rowReader struct {
	csv   *csv.Reader
	names []string
	width int
	limit int
	read  int
	done  bool
}

func newRowReader(r io.Reader, opts Options) (*rowReader, error) {
	br := bufio.NewReader(r)
	skipBOM(br)

	sep := opts.Separator
	if sep == 0 {
		sep = DetectSeparator(peekFirstLine(br))
	}
	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.FieldsPerRecord = -1

	rr := &rowReader{csv: cr, limit: opts.RowLimit}
	if opts.HasHeader {
		header, err := cr.Read()
		if err == io.EOF {
			rr.names = opts.ColumnNames
			rr.width = len(rr.names)
			rr.done = true
			return rr, nil
		}
		if err != nil {
			return nil, asMalformed(err)
		}
		rr.names = header
		if len(opts.ColumnNames) > 0 {
			if len(opts.ColumnNames) != len(header) {
				return nil, &frame.ErrShape{Msg: fmt.Sprintf("%d column names for %d-column input",
					len(opts.ColumnNames), len(header))}
			}
			rr.names = opts.ColumnNames
		}
		rr.width = len(rr.names)
	} else if len(opts.ColumnNames) > 0 {
		rr.names = opts.ColumnNames
		rr.width = len(rr.names)
	}
	return rr, nil
}

// Next returns one data row. The first data row fixes the table width
// when neither a header nor explicit names did.
func (rr *rowReader) Next() ([]string, error) {
	if rr.done || (rr.limit > 0 && rr.read >= rr.limit) {
		return nil, io.EOF
	}
	rec, err := rr.csv.Read()
	if err == io.EOF {
		rr.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, asMalformed(err)
	}
	if rr.width == 0 {
		rr.width = len(rec)
		rr.names = autoNames(rr.width)
	}
	if len(rec) != rr.width {
		line, _ := rr.csv.FieldPos(0)
		return nil, &ErrMalformedRow{Line: line, Expected: rr.width, Got: len(rec)}
	}
	rr.read++
	return rec, nil
}

func asMalformed(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ErrMalformedRow{Line: pe.Line, Err: err}
	}
	return err
}

func autoNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("column_%d", i+1)
	}
	return names
}
