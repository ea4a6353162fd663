package serialize_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/delimited"
	_ "github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/structured"
)

type captureSink struct {
	name string
	data []byte
}

func (s *captureSink) Write(_ context.Context, name string, data []byte) error {
	s.name = name
	s.data = data
	return nil
}

func testFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New([]frame.Column{
		{Name: "a", Type: frame.Int32Type, Values: []any{int32(1), int32(3)}},
		{Name: "b", Type: frame.Int32Type, Values: []any{int32(2), int32(4)}},
	})
	require.NoError(t, err)
	return f
}

func TestEmitReturnsBytes(t *testing.T) {
	data, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options: serialize.Options{Format: serialize.FormatCSV},
	})
	require.NoError(t, err)
	assert.Empty(t, dest)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(data))
}

func TestEmitDefaultsToCSV(t *testing.T) {
	data, _, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(data))
}

func TestEmitWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")

	data, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options: serialize.Options{Format: serialize.FormatJSON},
		Path:    path,
	})
	require.NoError(t, err)
	assert.Equal(t, path+".json", dest)

	onDisk, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
	assert.Equal(t, `{"a":[1,3],"b":[2,4]}`, string(onDisk))
}

func TestEmitKeepsExplicitExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	_, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options: serialize.Options{Format: serialize.FormatCSV},
		Path:    path,
	})
	require.NoError(t, err)
	assert.Equal(t, path, dest)
}

func TestEmitPathBeatsSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	sink := &captureSink{}

	_, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options:  serialize.Options{Format: serialize.FormatCSV},
		Path:     path,
		Download: sink,
	})
	require.NoError(t, err)
	assert.Equal(t, path, dest)
	assert.Empty(t, sink.data)
}

func TestEmitDownload(t *testing.T) {
	sink := &captureSink{}
	data, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options:  serialize.Options{Format: serialize.FormatTSV},
		Download: sink,
		Name:     "report",
	})
	require.NoError(t, err)
	assert.Equal(t, "report.tsv", dest)
	assert.Equal(t, "report.tsv", sink.name)
	assert.Equal(t, "a\tb\n1\t2\n3\t4\n", string(data))
	assert.Equal(t, data, sink.data)
}

func TestEmitDownloadDefaultName(t *testing.T) {
	sink := &captureSink{}
	_, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options:  serialize.Options{Format: serialize.FormatJSON},
		Download: sink,
	})
	require.NoError(t, err)
	assert.Equal(t, "data.json", dest)
}

func TestEmitRowLayout(t *testing.T) {
	data, _, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options: serialize.Options{Format: serialize.FormatJSON, Layout: "row"},
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1,"b":2},{"a":3,"b":4}]`, string(data))
}

func TestEmitSeriesOmitsHeader(t *testing.T) {
	f, err := frame.New([]frame.Column{
		{Name: "a", Type: frame.Int32Type, Values: []any{int32(1), int32(2), int32(3)}},
	})
	require.NoError(t, err)

	data, _, err := serialize.Emit(context.Background(), f, serialize.EmitConfig{
		Options: serialize.Options{Format: serialize.FormatCSV},
	})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3", string(data))
}

func TestEmitUnknownFormat(t *testing.T) {
	_, _, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options: serialize.Options{Format: "yaml"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	sink := serialize.DirSink{Dir: filepath.Join(dir, "downloads")}

	_, dest, err := serialize.Emit(context.Background(), testFrame(t), serialize.EmitConfig{
		Options:  serialize.Options{Format: serialize.FormatCSV},
		Download: sink,
		Name:     "table",
	})
	require.NoError(t, err)
	assert.Equal(t, "table.csv", dest)

	onDisk, err := os.ReadFile(filepath.Join(dir, "downloads", "table.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(onDisk))
}
