package delimited

import (
	"context"
	"io"
	"iter"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
)

// Block is one chunk of a streamed read.
type Block struct {
	Frame *frame.Frame
	// Index is the 0-based block ordinal.
	Index int
	// Start is the 1-based ordinal of the block's first data row.
	Start int
	// Casts lists the cells in this block that became null because they
	// did not fit their column's type. Row numbers are absolute.
	Casts []*frame.CastError
}

// Stream parses the source in blocks of opts.ChunkSize rows, in file
// order. Column types are fixed by the first block (or by opts.Types)
// and later cells that no longer fit become null, reported per block.
// Iteration ends after the final block; a malformed row or a cancelled
// context yields one error and stops, with previously yielded blocks
// unaffected.
func Stream(ctx context.Context, src source.Source, opts Options) iter.Seq2[*Block, error] {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return func(yield func(*Block, error) bool) {
		rc, err := src.Open(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rc.Close()

		rr, err := newRowReader(rc, opts)
		if err != nil {
			yield(nil, err)
			return
		}

		types := opts.Types
		index := 0
		start := 1
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			rows := make([][]string, 0, opts.ChunkSize)
			for len(rows) < opts.ChunkSize {
				rec, err := rr.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					// Rows accumulated for this block are discarded;
					// only complete blocks are ever delivered.
					yield(nil, err)
					return
				}
				rows = append(rows, rec)
			}
			if len(rows) > 0 {
				f, casts, err := frame.Build(rr.names, rows, frame.BuildOptions{
					Types:        types,
					NullLiterals: opts.NullLiterals,
				})
				if err != nil {
					yield(nil, err)
					return
				}
				if len(types) == 0 {
					types = make([]frame.DataType, len(f.Columns))
					for i, col := range f.Columns {
						types[i] = col.Type
					}
				}
				for _, c := range casts {
					c.Row += start - 1
				}
				if !yield(&Block{Frame: f, Index: index, Start: start, Casts: casts}, nil) {
					return
				}
				index++
				start += len(rows)
			}
			if len(rows) < opts.ChunkSize {
				return
			}
		}
	}
}
