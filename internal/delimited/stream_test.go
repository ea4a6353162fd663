package delimited

import (
	"context"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string, opts Options) ([]*Block, error) {
	t.Helper()
	var blocks []*Block
	for block, err := range Stream(context.Background(), source.FromBytes([]byte(input)), opts) {
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func TestStreamOneRowBlocks(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 1
	blocks, err := collect(t, "a,b\n1,2\n3,4\n5,6\n", opts)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	for i, block := range blocks {
		assert.Equal(t, i, block.Index)
		assert.Equal(t, i+1, block.Start)
		assert.Equal(t, 1, block.Frame.NumRows())
		assert.Equal(t, []string{"a", "b"}, block.Frame.Names())
	}
	assert.Equal(t, []any{int32(5)}, blocks[2].Frame.Columns[0].Values)
}

func TestStreamBlockSizes(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 2
	blocks, err := collect(t, "a\n1\n2\n3\n4\n5\n", opts)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, 2, blocks[0].Frame.NumRows())
	assert.Equal(t, 2, blocks[1].Frame.NumRows())
	assert.Equal(t, 1, blocks[2].Frame.NumRows())
	assert.Equal(t, 1, blocks[0].Start)
	assert.Equal(t, 3, blocks[1].Start)
	assert.Equal(t, 5, blocks[2].Start)
}

func TestStreamFreezesTypesFromFirstBlock(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 2
	blocks, err := collect(t, "a\n1\n2\nx\n4\n", opts)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, frame.Int32Type, blocks[0].Frame.Columns[0].Type)
	assert.Empty(t, blocks[0].Casts)

	// Second block keeps the frozen int32 type; "x" becomes null.
	assert.Equal(t, frame.Int32Type, blocks[1].Frame.Columns[0].Type)
	assert.Equal(t, []any{nil, int32(4)}, blocks[1].Frame.Columns[0].Values)
	require.Len(t, blocks[1].Casts, 1)
	assert.Equal(t, 3, blocks[1].Casts[0].Row)
	assert.Equal(t, "x", blocks[1].Casts[0].Token)
}

func TestStreamMalformedRowKeepsPriorBlocks(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 1
	blocks, err := collect(t, "a,b\n1,2\n3,4\n5\n7,8\n", opts)
	require.Error(t, err)

	var malformed *ErrMalformedRow
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 4, malformed.Line)

	// The two complete blocks before the bad row were delivered.
	require.Len(t, blocks, 2)
	assert.Equal(t, []any{int32(3)}, blocks[1].Frame.Columns[0].Values)
}

func TestStreamMalformedRowDiscardsPartialBlock(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 10
	blocks, err := collect(t, "a,b\n1,2\n3\n", opts)
	require.Error(t, err)
	assert.Empty(t, blocks)
}

func TestStreamConsumerStopsEarly(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 1
	var seen int
	for block, err := range Stream(context.Background(), source.FromBytes([]byte("a\n1\n2\n3\n")), opts) {
		require.NoError(t, err)
		require.NotNil(t, block)
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestStreamContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var blocks int
	var streamErr error
	for block, err := range Stream(ctx, source.FromBytes([]byte("a\n1\n")), DefaultOptions()) {
		if err != nil {
			streamErr = err
			break
		}
		_ = block
		blocks++
	}
	require.Error(t, streamErr)
	assert.ErrorIs(t, streamErr, context.Canceled)
	assert.Equal(t, 0, blocks)
}

func TestStreamSourceOpenError(t *testing.T) {
	missing := source.FromPath("testdata/does-not-exist.csv")
	var streamErr error
	for _, err := range Stream(context.Background(), missing, DefaultOptions()) {
		streamErr = err
	}
	require.Error(t, streamErr)

	var notFound *source.ErrNotFound
	assert.True(t, errors.As(streamErr, &notFound))
}

func TestStreamRowLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 2
	opts.RowLimit = 3
	blocks, err := collect(t, "a\n1\n2\n3\n4\n5\n", opts)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, 2, blocks[0].Frame.NumRows())
	assert.Equal(t, 1, blocks[1].Frame.NumRows())
}
