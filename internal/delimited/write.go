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
package delimited

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
)

// Write renders a frame as delimited text. Multi-column frames get a
// header line and one newline-terminated line per row, with fields
// quoted when they contain the separator. A single-column frame is a
// series: its values are written verbatim, newline-separated, with no
// header and no trailing newline.
func Write(w io.Writer, f *frame.Frame, sep rune) error {
	if sep == 0 {
		sep = ','
	}
	if f.NumCols() == 0 {
		return nil
	}
	if f.IsSeries() {
		col := f.Columns[0]
		lines := make([]string, len(col.Values))
		for i, v := range col.Values {
			lines[i] = frame.FormatValue(v, col.Type)
		}
		_, err := io.WriteString(w, strings.Join(lines, "\n"))
		return err
	}

	if err := WriteHeader(w, f.Names(), sep); err != nil {
		return err
	}
	return WriteRows(w, f, sep)
}

// WriteHeader writes a single line of column names.
func WriteHeader(w io.Writer, names []string, sep rune) error {
	if sep == 0 {
		sep = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteRows writes only the data rows of a frame, one newline-terminated
// line per row. Streaming consumers call it per block to append to output
// that already carries its header.
func WriteRows(w io.Writer, f *frame.Frame, sep rune) error {
	if sep == 0 {
		sep = ','
	}
	if f.NumCols() == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	record := make([]string, f.NumCols())
	for r := 0; r < f.NumRows(); r++ {
		for c, col := range f.Columns {
			record[c] = frame.FormatValue(col.Values[r], col.Type)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal renders a frame as delimited text in memory.
func Marshal(f *frame.Frame, sep rune) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, sep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
