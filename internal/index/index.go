// Package index holds the in-memory vector index for one corpus. Vectors are
// compared with cosine similarity and results are deterministic: equal scores
// are broken by ascending chunk sequence.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"document-chat/internal/models"
)

// Index maps chunk ids to embedded chunks and answers top-k similarity
// queries by brute force. Its lifetime is bound to the corpus it was built
// for; replacing the corpus discards the whole index.
type Index struct {
	mu     sync.RWMutex
	byID   map[string]struct{}
	chunks []models.Chunk
}

// New returns an empty index.
func New() *Index {
	return &Index{byID: make(map[string]struct{})}
}

// Insert appends a chunk with its embedding. Embeddings are immutable once
// stored. Inserting an id twice is an internal invariant violation and fails
// with models.ErrDuplicateChunkID.
func (ix *Index) Insert(chunk models.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byID[chunk.ID]; ok {
		return fmt.Errorf("%w: %s", models.ErrDuplicateChunkID, chunk.ID)
	}
	ix.byID[chunk.ID] = struct{}{}
	ix.chunks = append(ix.chunks, chunk)
	return nil
}

// Len returns the number of stored chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Search returns up to k chunks ordered by descending cosine similarity to
// the query vector. Ties are broken by ascending sequence so the earliest
// chunk wins. Chunks whose stored vector has zero magnitude are excluded, as
// is everything when the query vector itself is degenerate. Searching an
// empty index returns an empty result, not an error.
func (ix *Index) Search(query []float32, k int) []models.SearchResult {
	if k <= 0 || norm(query) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]models.SearchResult, 0, len(ix.chunks))
	for _, chunk := range ix.chunks {
		score, ok := cosineSimilarity(query, chunk.Embedding)
		if !ok {
			continue
		}
		results = append(results, models.SearchResult{Chunk: chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Sequence < results[j].Chunk.Sequence
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|). The second return value is
// false when either vector has zero magnitude or the lengths differ, since
// the metric is undefined there.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
