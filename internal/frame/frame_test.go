package frame

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesShape(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		wantErr error
	}{
		{
			name: "valid frame",
			columns: []Column{
				{Name: "a", Type: Int32Type, Values: []any{int32(1), int32(2)}},
				{Name: "b", Type: StringType, Values: []any{"x", "y"}},
			},
		},
		{
			name: "duplicate names",
			columns: []Column{
				{Name: "a", Type: Int32Type, Values: []any{int32(1)}},
				{Name: "a", Type: StringType, Values: []any{"x"}},
			},
			wantErr: &ErrDuplicateColumn{},
		},
		{
			name: "uneven lengths",
			columns: []Column{
				{Name: "a", Type: Int32Type, Values: []any{int32(1), int32(2)}},
				{Name: "b", Type: StringType, Values: []any{"x"}},
			},
			wantErr: &ErrShape{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.columns)
			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *ErrDuplicateColumn:
					var dup *ErrDuplicateColumn
					assert.True(t, errors.As(err, &dup))
				case *ErrShape:
					var shape *ErrShape
					assert.True(t, errors.As(err, &shape))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.columns), f.NumCols())
		})
	}
}

func TestFrameAccessors(t *testing.T) {
	f, err := New([]Column{
		{Name: "id", Type: Int32Type, Values: []any{int32(1), int32(2)}},
		{Name: "name", Type: StringType, Values: []any{"ada", nil}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, 2, f.NumCols())
	assert.Equal(t, []string{"id", "name"}, f.Names())
	assert.False(t, f.IsSeries())

	col, ok := f.Column("name")
	require.True(t, ok)
	assert.Equal(t, StringType, col.Type)
	assert.Equal(t, 2, col.Len())

	_, ok = f.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, []any{int32(2), nil}, f.Row(1))
}

func TestIsSeries(t *testing.T) {
	f, err := New([]Column{{Name: "a", Type: Int32Type, Values: []any{int32(1)}}})
	require.NoError(t, err)
	assert.True(t, f.IsSeries())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		v    any
		typ  DataType
		want string
	}{
		{name: "null", v: nil, typ: Int32Type, want: ""},
		{name: "int32", v: int32(-42), typ: Int32Type, want: "-42"},
		{name: "float32 shortest form", v: float32(2.5), typ: Float32Type, want: "2.5"},
		{name: "float32 round trips", v: float32(0.1), typ: Float32Type, want: "0.1"},
		{name: "boolean", v: true, typ: BooleanType, want: "true"},
		{name: "string", v: "hello", typ: StringType, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.v, tt.typ))
		})
	}
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "int32", Int32Type.String())
	assert.Equal(t, "float32", Float32Type.String())
	assert.Equal(t, "boolean", BooleanType.String())
	assert.Equal(t, "string", StringType.String())
}
