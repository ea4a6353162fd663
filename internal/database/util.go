package database

import (
	"math"
	"strings"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
)

// NumericLiteral renders integer, float and boolean cells as bare SQL
// literals. Non-finite floats have no SQL literal and become NULL.
func NumericLiteral(v any, t frame.DataType) string {
	if v == nil {
		return "NULL"
	}
	if t == frame.Float32Type {
		if f, ok := v.(float32); ok {
			f64 := float64(f)
			if math.IsNaN(f64) || math.IsInf(f64, 0) {
				return "NULL"
			}
		}
	}
	return frame.FormatValue(v, t)
}

// EscapeSingleQuotes doubles single quotes so a value can be embedded
// in a SQL string literal.
func EscapeSingleQuotes(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
