package memory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Upsert(ctx, "paper_1", []float32{0.9, float32(math.Sqrt(1 - 0.81))}, "Transformers use self-attention."))
	require.NoError(t, store.Upsert(ctx, "paper_2", []float32{0, 1}, "Convolutions share weights."))
	require.NoError(t, store.Upsert(ctx, "paper_3", []float32{1, 0, 0}, "different dimension"))

	matches, err := store.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "paper_1", matches[0].ID)
	assert.Equal(t, "Transformers use self-attention.", matches[0].Text)
	assert.InDelta(t, 0.9, matches[0].Score, 1e-6)
	assert.Equal(t, "paper_2", matches[1].ID)
}

func TestVectorStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	require.NoError(t, store.Upsert(ctx, "a_1", []float32{1, 0}, "old"))
	require.NoError(t, store.Upsert(ctx, "a_1", []float32{1, 0}, "new"))

	assert.Equal(t, 1, store.Count())
	matches, err := store.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", matches[0].Text)
}

func TestVectorStore_QueryCappedByEntries(t *testing.T) {
	ctx := context.Background()
	store := NewVectorStore()

	matches, err := store.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, store.Upsert(ctx, "a_1", []float32{1, 1}, "x"))
	matches, err = store.Query(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestVectorStore_UpsertValidation(t *testing.T) {
	store := NewVectorStore()
	assert.Error(t, store.Upsert(context.Background(), "", []float32{1}, "x"))
	assert.Error(t, store.Upsert(context.Background(), "a", nil, "x"))
}

func TestCursorStore(t *testing.T) {
	ctx := context.Background()
	cursor := NewCursorStore()

	got, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	require.NoError(t, cursor.Save(ctx, 3))
	got, err = cursor.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MustGet())
}
