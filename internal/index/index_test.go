package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-chat/internal/models"
)

func mustInsert(t *testing.T, ix *Index, id string, seq int, vec []float32) {
	t.Helper()
	require.NoError(t, ix.Insert(models.Chunk{
		ID:        id,
		Text:      "chunk " + id,
		Sequence:  seq,
		Embedding: vec,
	}))
}

func TestInsert_DuplicateID(t *testing.T) {
	ix := New()
	mustInsert(t, ix, "c1", 0, []float32{1, 0})

	err := ix.Insert(models.Chunk{ID: "c1", Sequence: 1, Embedding: []float32{0, 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateChunkID)
	assert.Equal(t, 1, ix.Len())
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := New()
	results := ix.Search([]float32{1, 0}, 5)
	assert.Empty(t, results)
}

func TestSearch_ResultCount(t *testing.T) {
	ix := New()
	mustInsert(t, ix, "c1", 0, []float32{1, 0})
	mustInsert(t, ix, "c2", 1, []float32{0, 1})
	mustInsert(t, ix, "c3", 2, []float32{1, 1})

	t.Run("k smaller than n", func(t *testing.T) {
		assert.Len(t, ix.Search([]float32{1, 0}, 2), 2)
	})
	t.Run("k larger than n", func(t *testing.T) {
		assert.Len(t, ix.Search([]float32{1, 0}, 10), 3)
	})
	t.Run("k not positive", func(t *testing.T) {
		assert.Empty(t, ix.Search([]float32{1, 0}, 0))
	})
}

func TestSearch_DescendingScores(t *testing.T) {
	ix := New()
	mustInsert(t, ix, "c1", 0, []float32{1, 0})
	mustInsert(t, ix, "c2", 1, []float32{0.6, 0.8})
	mustInsert(t, ix, "c3", 2, []float32{0, 1})

	results := ix.Search([]float32{1, 0}, 3)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearch_TieBrokenBySequence(t *testing.T) {
	// Two identical unit vectors score 1.0 for the same query; the chunk
	// with the lower sequence must win.
	ix := New()
	mustInsert(t, ix, "later", 7, []float32{0, 1, 0})
	mustInsert(t, ix, "earlier", 3, []float32{0, 1, 0})

	results := ix.Search([]float32{0, 1, 0}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "earlier", results[0].Chunk.ID)
	assert.Equal(t, 3, results[0].Chunk.Sequence)
}

func TestSearch_ZeroVectorsExcluded(t *testing.T) {
	ix := New()
	mustInsert(t, ix, "zero", 0, []float32{0, 0})
	mustInsert(t, ix, "unit", 1, []float32{0, 1})

	results := ix.Search([]float32{0, 1}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "unit", results[0].Chunk.ID)
}

func TestSearch_ZeroQueryVector(t *testing.T) {
	ix := New()
	mustInsert(t, ix, "c1", 0, []float32{1, 0})

	assert.Empty(t, ix.Search([]float32{0, 0}, 5))
}

func TestSearch_InsertionOrderIrrelevant(t *testing.T) {
	build := func(order []int) *Index {
		ix := New()
		vecs := map[int][]float32{0: {1, 0}, 1: {0.9, 0.1}, 2: {0, 1}}
		ids := map[int]string{0: "a", 1: "b", 2: "c"}
		for _, i := range order {
			mustInsert(t, ix, ids[i], i, vecs[i])
		}
		return ix
	}

	q := []float32{1, 0}
	first := build([]int{0, 1, 2}).Search(q, 3)
	second := build([]int{2, 0, 1}).Search(q, 3)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.ID, second[i].Chunk.ID)
	}
}
