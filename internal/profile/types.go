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
package profile

// ColumnProfile holds the computed statistics for a single column.
type ColumnProfile struct {
	Name          string   `json:"name"`
	DataType      string   `json:"data_type"`
	Rows          int64    `json:"rows"`
	NullCount     int64    `json:"null_count"`
	DistinctCount int64    `json:"distinct_count"`
	ExampleValues []string `json:"example_values,omitempty"`
	Min           string   `json:"min,omitempty"`
	Max           string   `json:"max,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// DatasetProfile is the profiling result for a whole dataset.
type DatasetProfile struct {
	Dataset     string           `json:"dataset"`
	Rows        int              `json:"rows"`
	Description string           `json:"description,omitempty"`
	Columns     []*ColumnProfile `json:"columns"`
}
