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

// Package structured parses and writes JSON tables in two layouts: a
// column layout mapping each name to an array of values, and a row
// layout listing one object per row. Column order is the order names
// first appear in the document, which is why decoding walks tokens
// instead of unmarshalling into maps.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
)

// Layout selects the JSON table shape.
type Layout int

const (
	// LayoutAuto detects the layout from the first byte: an object is
	// column layout, an array is row layout.
	LayoutAuto Layout = iota
	LayoutColumn
	LayoutRow
)

func (l Layout) String() string {
	switch l {
	case LayoutColumn:
		return "column"
	case LayoutRow:
		return "row"
	default:
		return "auto"
	}
}

// ParseLayout converts a layout flag value.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "auto":
		return LayoutAuto, nil
	case "column", "columns":
		return LayoutColumn, nil
	case "row", "rows", "records":
		return LayoutRow, nil
	}
	return LayoutAuto, fmt.Errorf("unknown layout %q (want auto, column or row)", s)
}

// Options controls structured parsing.
type Options struct {
	Layout Layout
}

// ErrDecode indicates JSON input that does not describe a table, such as
// nested values or a layout mismatch.
type ErrDecode struct {
	Msg string
	Err error
}

func (e *ErrDecode) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid structured input: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid structured input: %s", e.Msg)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// Read parses JSON from the source into a frame. Column types follow the
// same widening as delimited input: integral numbers are int32, other
// numbers float32, uniform booleans boolean, and any mix falls back to
// string. JSON null is the null cell.
func Read(ctx context.Context, src source.Source, opts Options) (*frame.Frame, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := json.NewDecoder(rc)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &ErrDecode{Msg: "reading document", Err: err}
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, &ErrDecode{Msg: fmt.Sprintf("top-level value %v is not an object or array", tok)}
	}
	switch {
	case delim == '{' && opts.Layout != LayoutRow:
		return readColumns(dec)
	case delim == '[' && opts.Layout != LayoutColumn:
		return readRows(dec)
	case delim == '{':
		return nil, &ErrDecode{Msg: "row layout requires a top-level array"}
	default:
		return nil, &ErrDecode{Msg: "column layout requires a top-level object"}
	}
}

// readColumns consumes {"name": [v, ...], ...} after the opening brace.
func readColumns(dec *json.Decoder) (*frame.Frame, error) {
	var names []string
	var raw [][]any
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &ErrDecode{Msg: "reading column name", Err: err}
		}
		name := keyTok.(string)

		tok, err := dec.Token()
		if err != nil {
			return nil, &ErrDecode{Msg: fmt.Sprintf("reading column %q", name), Err: err}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return nil, &ErrDecode{Msg: fmt.Sprintf("column %q is not an array", name)}
		}
		var vals []any
		for dec.More() {
			v, err := decodeScalar(dec)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, &ErrDecode{Msg: fmt.Sprintf("closing column %q", name), Err: err}
		}
		names = append(names, name)
		raw = append(raw, vals)
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ErrDecode{Msg: "closing document", Err: err}
	}

	columns := make([]frame.Column, len(names))
	for i, vals := range raw {
		columns[i] = typedColumn(names[i], vals)
	}
	return frame.New(columns)
}

// readRows consumes [{"name": v, ...}, ...] after the opening bracket.
// Column order is first appearance across all rows; keys absent from a
// row become null cells.
func readRows(dec *json.Decoder) (*frame.Frame, error) {
	var order []string
	index := make(map[string]int)
	var rows []map[string]any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ErrDecode{Msg: "reading row", Err: err}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, &ErrDecode{Msg: fmt.Sprintf("row %d is not an object", len(rows)+1)}
		}
		row := make(map[string]any)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &ErrDecode{Msg: "reading row key", Err: err}
			}
			name := keyTok.(string)
			v, err := decodeScalar(dec)
			if err != nil {
				return nil, err
			}
			if _, seen := index[name]; !seen {
				index[name] = len(order)
				order = append(order, name)
			}
			row[name] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, &ErrDecode{Msg: "closing row", Err: err}
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ErrDecode{Msg: "closing document", Err: err}
	}

	columns := make([]frame.Column, len(order))
	for i, name := range order {
		vals := make([]any, len(rows))
		for r, row := range rows {
			vals[r] = row[name]
		}
		columns[i] = typedColumn(name, vals)
	}
	return frame.New(columns)
}

// decodeScalar reads one cell value: a number, string, boolean or null.
func decodeScalar(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, &ErrDecode{Msg: "reading value", Err: err}
	}
	if _, ok := tok.(json.Delim); ok {
		return nil, &ErrDecode{Msg: "nested objects and arrays are not supported as cell values"}
	}
	return tok, nil
}

// typedColumn infers a column's type from its decoded values and casts
// them. The inference merge guarantees every value fits, so unlike the
// delimited path there are no cast misses to report.
func typedColumn(name string, vals []any) frame.Column {
	colType := frame.StringType
	seen := false
	for _, v := range vals {
		if v == nil {
			continue
		}
		c := classifyValue(v)
		if !seen {
			colType = c
			seen = true
		} else {
			colType = frame.MergeTypes(colType, c)
		}
		if colType == frame.StringType {
			break
		}
	}

	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = castValue(v, colType)
	}
	return frame.Column{Name: name, Type: colType, Values: out}
}

func classifyValue(v any) frame.DataType {
	switch n := v.(type) {
	case json.Number:
		if _, err := strconv.ParseInt(string(n), 10, 32); err == nil {
			return frame.Int32Type
		}
		return frame.Float32Type
	case bool:
		return frame.BooleanType
	case string:
		return frame.StringType
	default:
		return frame.StringType
	}
}

func castValue(v any, t frame.DataType) any {
	if v == nil {
		return nil
	}
	switch t {
	case frame.Int32Type:
		if n, ok := v.(json.Number); ok {
			if i, err := strconv.ParseInt(string(n), 10, 32); err == nil {
				return int32(i)
			}
		}
	case frame.Float32Type:
		if n, ok := v.(json.Number); ok {
			if f, err := strconv.ParseFloat(string(n), 32); err == nil {
				return float32(f)
			}
		}
	case frame.BooleanType:
		if b, ok := v.(bool); ok {
			return b
		}
	case frame.StringType:
		switch s := v.(type) {
		case string:
			return s
		case json.Number:
			return string(s)
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return nil
}
