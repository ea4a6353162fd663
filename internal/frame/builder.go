package frame

import (
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// BuildOptions tunes Build. Types pins column types instead of inferring
// them; NullLiterals lists extra tokens treated as null besides the empty
// string.
type BuildOptions struct {
	Types        []DataType
	NullLiterals []string
}

// Build transposes row-major string records into a typed Frame. Column
// types come from opts.Types when supplied, otherwise each column's type
// is inferred from its tokens. Cells that do not fit their column's type
// become null and are reported as CastErrors; they never fail the build.
// Duplicate column names and ragged rows do fail it.
func Build(names []string, rows [][]string, opts BuildOptions) (*Frame, []*CastError, error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, nil, &ErrDuplicateColumn{Name: name}
		}
		seen[name] = true
	}
	if len(names) == 0 && len(rows) > 0 {
		return nil, nil, &ErrShape{Msg: "rows supplied without column names"}
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, nil, &ErrShape{Msg: fmt.Sprintf("row %d has %d fields, want %d", i+1, len(row), len(names))}
		}
	}
	if len(opts.Types) > 0 && len(opts.Types) != len(names) {
		return nil, nil, &ErrShape{Msg: fmt.Sprintf("%d column types for %d columns", len(opts.Types), len(names))}
	}

	columns := make([]Column, len(names))
	castsByCol := make([][]*CastError, len(names))
	var g errgroup.Group
	for c := range names {
		g.Go(func() error {
			tokens := make([]string, len(rows))
			for r, row := range rows {
				tok := row[c]
				if slices.Contains(opts.NullLiterals, tok) {
					tok = ""
				}
				tokens[r] = tok
			}
			colType := InferType(tokens)
			if len(opts.Types) > 0 {
				colType = opts.Types[c]
			}
			values := make([]any, len(tokens))
			for r, tok := range tokens {
				v, err := CastValue(tok, colType)
				if err != nil {
					castsByCol[c] = append(castsByCol[c], &CastError{
						Row:    r + 1,
						Column: names[c],
						Token:  tok,
						Type:   colType,
					})
					continue
				}
				values[r] = v
			}
			columns[c] = Column{Name: names[c], Type: colType, Values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var casts []*CastError
	for _, cc := range castsByCol {
		casts = append(casts, cc...)
	}
	return &Frame{Columns: columns}, casts, nil
}
