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
package frame

import (
	"fmt"
	"strconv"
)

// DataType is the storage type of a column.
type DataType int

const (
	Int32Type DataType = iota
	Float32Type
	BooleanType
	StringType
)

var dataTypeNames = [...]string{"int32", "float32", "boolean", "string"}

func (t DataType) String() string {
	if t < Int32Type || t > StringType {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return dataTypeNames[t]
}

// Column holds one named, typed value sequence. A nil entry in Values is
// the null placeholder; every non-nil entry is an int32, float32, bool or
// string matching Type.
type Column struct {
	Name   string
	Type   DataType
	Values []any
}

func (c *Column) Len() int {
	return len(c.Values)
}

func (c *Column) IsNull(i int) bool {
	return c.Values[i] == nil
}

// Frame is a column-major table. Column names are unique and all columns
// have the same length.
type Frame struct {
	Columns []Column
}

// New validates the column set and wraps it in a Frame.
func New(columns []Column) (*Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col.Name] {
			return nil, &ErrDuplicateColumn{Name: col.Name}
		}
		seen[col.Name] = true
	}
	for i := 1; i < len(columns); i++ {
		if len(columns[i].Values) != len(columns[0].Values) {
			return nil, &ErrShape{Msg: fmt.Sprintf("column %q has %d values, column %q has %d",
				columns[i].Name, len(columns[i].Values), columns[0].Name, len(columns[0].Values))}
		}
	}
	return &Frame{Columns: columns}, nil
}

func (f *Frame) NumRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

func (f *Frame) NumCols() int {
	return len(f.Columns)
}

// Names returns the column names in table order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the named column, or false when it does not exist.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// Row materializes row i across all columns. Null cells are nil.
func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.Columns))
	for c := range f.Columns {
		row[c] = f.Columns[c].Values[i]
	}
	return row
}

// IsSeries reports whether the frame is a single-column table, which the
// delimited writer emits without a header line.
func (f *Frame) IsSeries() bool {
	return len(f.Columns) == 1
}

// FormatValue renders a cell as canonical text. Null renders as the empty
// string; float32 uses the shortest representation that round-trips at
// 32-bit precision.
func FormatValue(v any, t DataType) string {
	if v == nil {
		return ""
	}
	switch t {
	case Int32Type:
		if i, ok := v.(int32); ok {
			return strconv.FormatInt(int64(i), 10)
		}
	case Float32Type:
		if f, ok := v.(float32); ok {
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
	case BooleanType:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b)
		}
	case StringType:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fmt.Sprint(v)
}
