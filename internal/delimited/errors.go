package delimited

import "fmt"

// ErrMalformedRow indicates a row that could not be parsed, either
// because its field count differs from the table width or because the
// quoting is broken. Parsing stops at the first malformed row.
type ErrMalformedRow struct {
	Line     int
	Expected int
	Got      int
	Err      error
}

func (e *ErrMalformedRow) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed row at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed row at line %d: got %d fields, want %d", e.Line, e.Got, e.Expected)
}

func (e *ErrMalformedRow) Unwrap() error {
	return e.Err
}
