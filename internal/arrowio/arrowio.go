// Package arrowio bridges frames and Apache Arrow tables, backing the
// parquet output format and parquet ingest.
package arrowio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
)

func arrowType(t frame.DataType) arrow.DataType {
	switch t {
	case frame.Int32Type:
		return arrow.PrimitiveTypes.Int32
	case frame.Float32Type:
		return arrow.PrimitiveTypes.Float32
	case frame.BooleanType:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// ToTable converts a frame into an Arrow table. The caller releases it.
func ToTable(f *frame.Frame) (arrow.Table, error) {
	fields := make([]arrow.Field, f.NumCols())
	for i, col := range f.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)
	pool := memory.NewGoAllocator()

	columns := make([]arrow.Column, f.NumCols())
	for i, col := range f.Columns {
		builder := array.NewBuilder(pool, fields[i].Type)
		defer builder.Release()

		for _, v := range col.Values {
			appendValue(builder, v, col.Type)
		}

		arr := builder.NewArray()
		defer arr.Release()

		chunked := arrow.NewChunked(fields[i].Type, []arrow.Array{arr})
		columns[i] = *arrow.NewColumn(fields[i], chunked)
	}
	return array.NewTable(schema, columns, int64(f.NumRows())), nil
}

func appendValue(builder array.Builder, v any, t frame.DataType) {
	if v == nil {
		builder.AppendNull()
		return
	}
	switch t {
	case frame.Int32Type:
		builder.(*array.Int32Builder).Append(v.(int32))
	case frame.Float32Type:
		builder.(*array.Float32Builder).Append(v.(float32))
	case frame.BooleanType:
		builder.(*array.BooleanBuilder).Append(v.(bool))
	default:
		builder.(*array.StringBuilder).Append(v.(string))
	}
}

// FromTable converts an Arrow table back into a frame. Wider numeric
// columns from foreign files are narrowed: int64 values outside int32
// range become null.
func FromTable(table arrow.Table) (*frame.Frame, error) {
	schema := table.Schema()
	columns := make([]frame.Column, schema.NumFields())
	for i, field := range schema.Fields() {
		colType, err := frameType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", field.Name, err)
		}
		columns[i] = frame.Column{
			Name:   field.Name,
			Type:   colType,
			Values: make([]any, 0, int(table.NumRows())),
		}
	}

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for c, col := range rec.Columns() {
			for r := 0; r < int(rec.NumRows()); r++ {
				columns[c].Values = append(columns[c].Values, readValue(col, r))
			}
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return frame.New(columns)
}

func frameType(t arrow.DataType) (frame.DataType, error) {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return frame.Int32Type, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return frame.Float32Type, nil
	case arrow.BOOL:
		return frame.BooleanType, nil
	case arrow.STRING:
		return frame.StringType, nil
	default:
		return frame.StringType, fmt.Errorf("unsupported parquet column type %s", t.Name())
	}
}

func readValue(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}
	switch col.DataType().ID() {
	case arrow.INT8:
		return int32(col.(*array.Int8).Value(pos))
	case arrow.INT16:
		return int32(col.(*array.Int16).Value(pos))
	case arrow.INT32:
		return col.(*array.Int32).Value(pos)
	case arrow.INT64:
		v := col.(*array.Int64).Value(pos)
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil
		}
		return int32(v)
	case arrow.FLOAT32:
		return col.(*array.Float32).Value(pos)
	case arrow.FLOAT64:
		return float32(col.(*array.Float64).Value(pos))
	case arrow.BOOL:
		return col.(*array.Boolean).Value(pos)
	case arrow.STRING:
		return col.(*array.String).Value(pos)
	default:
		return nil
	}
}

// WriteParquet renders a frame as a snappy-compressed parquet file with
// the Arrow schema stored alongside.
func WriteParquet(w io.Writer, f *frame.Frame) error {
	table, err := ToTable(f)
	if err != nil {
		return err
	}
	defer table.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(table.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	if err := writer.WriteTable(table, table.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("writing parquet table: %w", err)
	}
	// Close writes the file footer; its error matters.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

// ReadParquet parses parquet bytes into a frame. Parquet needs random
// access, so the input is held in memory.
func ReadParquet(ctx context.Context, data []byte) (*frame.Frame, error) {
	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening parquet data: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("creating arrow reader: %w", err)
	}
	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parquet table: %w", err)
	}
	defer table.Release()
	return FromTable(table)
}

type parquetEncoder struct{}

func (parquetEncoder) Encode(f *frame.Frame, _ serialize.Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (parquetEncoder) Extension() string {
	return ".parquet"
}

func init() {
	serialize.RegisterEncoder(serialize.FormatParquet, parquetEncoder{})
}
