package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Upsert(ctx, "attention_1", []float32{0.9, float32(math.Sqrt(1 - 0.81))}, "Transformers use self-attention."))
	require.NoError(t, store.Upsert(ctx, "cnn_1", []float32{0, 1}, "Convolutions share weights."))
	require.NoError(t, store.Upsert(ctx, "cnn_2", []float32{-1, 0}, "Pooling reduces resolution."))

	matches, err := store.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "attention_1", matches[0].ID)
	assert.Equal(t, "Transformers use self-attention.", matches[0].Text)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-6)
	assert.Equal(t, "cnn_1", matches[1].ID)
}

func TestStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Upsert(ctx, "a_1", []float32{1, 0}, "old"))
	require.NoError(t, store.Upsert(ctx, "a_1", []float32{0, 1}, "new"))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matches, err := store.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestStore_QueryEmpty(t *testing.T) {
	matches, err := setupStore(t).Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{0, 1.5, -2.25, float32(math.Pi)}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
}

func TestCursorStore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	papers := store.CursorStore("research_chunks")
	other := store.CursorStore("other")

	got, err := papers.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	require.NoError(t, papers.Save(ctx, 2))
	require.NoError(t, papers.Save(ctx, 3))

	got, err = papers.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MustGet())

	got, err = other.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())
}

func TestCursorStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cursor.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.CursorStore("c").Save(ctx, 7))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.CursorStore("c").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.MustGet())
}
