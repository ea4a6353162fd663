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

import "fmt"

// ErrDuplicateColumn indicates the same column name was supplied twice.
// Duplicate names are always fatal; they are never renamed or merged.
type ErrDuplicateColumn struct {
	Name string
}

func (e *ErrDuplicateColumn) Error() string {
	return fmt.Sprintf("duplicate column name %q", e.Name)
}

// ErrShape indicates mismatched row widths or column lengths.
type ErrShape struct {
	Msg string
	Err error
}

func (e *ErrShape) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid table shape: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid table shape: %s", e.Msg)
}

func (e *ErrShape) Unwrap() error {
	return e.Err
}

// CastError records a single cell that could not be converted to its
// column's type. The cell is stored as null and the error is collected;
// it never aborts a build.
type CastError struct {
	Row    int
	Column string
	Token  string
	Type   DataType
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %q to %s in column %q (row %d)", e.Token, e.Type, e.Column, e.Row)
}
