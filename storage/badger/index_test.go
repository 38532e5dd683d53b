package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

func testChunk(sourceID string, index int, text string, vector []float32) *core.Chunk {
	return &core.Chunk{
		SourceID:   sourceID,
		PageNumber: 1,
		ChunkIndex: index,
		Text:       text,
		Vector:     vector,
	}
}

func TestOpenIndex_RequiresPath(t *testing.T) {
	_, err := OpenIndex("", nil)
	assert.Error(t, err)
}

func TestState_AbsentPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer ix.Close()

	state, err := ix.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.IndexAbsent, state)

	// State alone must not create the directory.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestState_EmptyDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.MkdirAll(path, 0755))

	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer ix.Close()

	state, err := ix.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.IndexEmptyArtifact, state)
}

func TestCreate_TransitionsToPopulated(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()

	err = ix.Create(ctx,
		testChunk("doc.pdf", 0, "first", []float32{1, 0, 0}),
		testChunk("doc.pdf", 1, "second", []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	state, err := ix.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.IndexPopulated, state)

	count, err := ix.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreate_AlreadyPopulated(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Create(ctx, testChunk("a.pdf", 0, "text", []float32{1})))

	err = ix.Create(ctx, testChunk("b.pdf", 0, "more", []float32{1}))
	assert.ErrorIs(t, err, storage.ErrAlreadyPopulated)
}

func TestAppend_RequiresPopulated(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	err = ix.Append(context.Background(), testChunk("a.pdf", 0, "text", []float32{1}))
	assert.ErrorIs(t, err, storage.ErrNotPopulated)
}

func TestAppend_AddsChunks(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Create(ctx, testChunk("a.pdf", 0, "first", []float32{1, 0})))
	require.NoError(t, ix.Append(ctx, testChunk("b.pdf", 0, "second", []float32{0, 1})))

	count, err := ix.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAppend_IdenticalContentOverwrites(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Create(ctx, testChunk("a.pdf", 0, "same text", []float32{1, 0})))
	require.NoError(t, ix.Append(ctx, testChunk("a.pdf", 0, "same text", []float32{0, 1})))

	count, err := ix.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWrite_RejectsMissingVector(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	err = ix.Create(context.Background(), testChunk("a.pdf", 0, "text", nil))
	assert.ErrorIs(t, err, storage.ErrMissingVector)
}

func TestQuery_RanksBySimilarity(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Create(ctx,
		testChunk("a.pdf", 0, "far", []float32{0, 1, 0}),
		testChunk("a.pdf", 1, "near", []float32{0.9, 0.1, 0}),
		testChunk("a.pdf", 2, "exact", []float32{1, 0, 0}),
	))

	matches, err := ix.Query(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Chunk.Text)
	assert.Equal(t, "near", matches[1].Chunk.Text)
	assert.Equal(t, "far", matches[2].Chunk.Text)
	for i := 0; i < len(matches)-1; i++ {
		assert.GreaterOrEqual(t, matches[i].Score, matches[i+1].Score)
	}
}

func TestQuery_LimitsResults(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	chunks := make([]*core.Chunk, 8)
	for i := range chunks {
		chunks[i] = testChunk("a.pdf", i, "text", []float32{float32(i + 1)})
	}
	require.NoError(t, ix.Create(ctx, chunks...))

	matches, err := ix.Query(ctx, []float32{1}, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestQuery_AbsentIndexReturnsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer ix.Close()

	matches, err := ix.Query(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDestroy_ReturnsToAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Create(ctx, testChunk("a.pdf", 0, "text", []float32{1})))
	require.NoError(t, ix.Destroy(ctx))

	state, err := ix.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.IndexAbsent, state)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDestroy_AbsentIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer ix.Close()

	assert.NoError(t, ix.Destroy(context.Background()))
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	_, err = ix.State(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.NoError(t, ix.Close())
}

func TestCreate_BatchLargerThanOneTransaction(t *testing.T) {
	ix, err := NewMemoryIndex()
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()

	// Big enough that the combined payload exceeds what a single Badger
	// transaction accepts.
	const (
		chunkCount = 20000
		vectorDim  = 768
	)
	vector := make([]float32, vectorDim)
	for i := range vector {
		vector[i] = float32(i) / vectorDim
	}
	filler := strings.Repeat("x", 900)

	chunks := make([]*core.Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			SourceID:   "big.pdf",
			PageNumber: i/40 + 1,
			ChunkIndex: i,
			Text:       fmt.Sprintf("%s %d", filler, i),
			Vector:     vector,
		}
	}

	require.NoError(t, ix.Create(ctx, chunks...))

	count, err := ix.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunkCount, count)

	state, err := ix.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.IndexPopulated, state)
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	ix, err := OpenIndex(path, nil)
	require.NoError(t, err)
	require.NoError(t, ix.Create(ctx, testChunk("a.pdf", 0, "persisted", []float32{1, 0})))
	require.NoError(t, ix.Close())

	reopened, err := OpenIndex(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.IndexPopulated, state)

	matches, err := reopened.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "persisted", matches[0].Chunk.Text)
}
