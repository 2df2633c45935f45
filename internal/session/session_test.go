package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-chat/internal/chunker"
	"document-chat/internal/models"
)

// fakeEmbedder returns a deterministic unit vector per text and can be told
// to fail after a given number of calls.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failAfter int // fail when calls > failAfter; -1 never fails
}

func newFakeEmbedder() *fakeEmbedder { return &fakeEmbedder{failAfter: -1} }

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAfter >= 0 && f.calls > f.failAfter {
		return nil, models.ErrEmbeddingUnavailable
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func newTestSession(t *testing.T, emb Embedder) *Session {
	t.Helper()
	split, err := chunker.New(100, 20)
	require.NoError(t, err)
	return New(split, emb)
}

func TestIngest_ActivatesCorpus(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	text := strings.Repeat("some document text. ", 30)
	count, err := s.Ingest(context.Background(), models.KindPDF, text, models.Metadata{Title: "doc"})
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	st := s.Status()
	assert.True(t, st.Active)
	assert.Equal(t, models.KindPDF, st.Kind)
	assert.Equal(t, count, st.ChunkCount)

	c, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "doc", c.Metadata.Title)
	assert.Equal(t, count, c.Index.Len())
	for i, ch := range c.Chunks {
		assert.Equal(t, i, ch.Sequence)
		assert.NotEmpty(t, ch.Embedding, "chunk %d must have an embedding", i)
	}
}

func TestIngest_ExampleChunkCount(t *testing.T) {
	split, err := chunker.New(1000, 200)
	require.NoError(t, err)
	s := New(split, newFakeEmbedder())

	count, err := s.Ingest(context.Background(), models.KindPDF, strings.Repeat("a", 2500), models.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, s.Status().ChunkCount)
}

func TestIngest_EmptyDocument(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	_, err := s.Ingest(context.Background(), models.KindPDF, "   \n ", models.Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIngestionFailed)
	assert.False(t, s.Status().Active)
}

func TestIngest_InvalidKind(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	_, err := s.Ingest(context.Background(), models.CorpusKind("docx"), "text", models.Metadata{})
	assert.ErrorIs(t, err, models.ErrIngestionFailed)
}

func TestIngest_FailureKeepsPreviousCorpus(t *testing.T) {
	// Ingest corpus A, then ingest corpus B whose embedding step fails:
	// status must still report corpus A.
	emb := newFakeEmbedder()
	emb.failAfter = 1
	s := newTestSession(t, emb)

	countA, err := s.Ingest(context.Background(), models.KindPDF, strings.Repeat("aaaa ", 100), models.Metadata{})
	require.NoError(t, err)

	before := s.Status()
	_, err = s.Ingest(context.Background(), models.KindYouTube, strings.Repeat("bbbb ", 100), models.Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIngestionFailed)
	// The embedding cause stays visible through the ingestion wrapper.
	assert.ErrorIs(t, err, models.ErrEmbeddingUnavailable)

	after := s.Status()
	assert.Equal(t, before, after)
	assert.Equal(t, models.KindPDF, after.Kind)
	assert.Equal(t, countA, after.ChunkCount)
}

func TestIngest_ReplacesActiveCorpus(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	_, err := s.Ingest(context.Background(), models.KindPDF, strings.Repeat("pdf text ", 50), models.Metadata{})
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), models.KindYouTube, strings.Repeat("transcript ", 50), models.Metadata{Title: "video"})
	require.NoError(t, err)

	st := s.Status()
	assert.Equal(t, models.KindYouTube, st.Kind)
}

func TestReset_Idempotent(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	_, err := s.Ingest(context.Background(), models.KindPDF, strings.Repeat("text ", 100), models.Metadata{})
	require.NoError(t, err)

	s.Reset()
	assert.False(t, s.Status().Active)
	assert.Zero(t, s.Status().ChunkCount)

	s.Reset() // resetting an empty session is a no-op
	assert.False(t, s.Status().Active)
}

func TestActive_SnapshotSurvivesSwap(t *testing.T) {
	s := newTestSession(t, newFakeEmbedder())

	_, err := s.Ingest(context.Background(), models.KindPDF, strings.Repeat("first ", 100), models.Metadata{Title: "first"})
	require.NoError(t, err)

	snapshot, ok := s.Active()
	require.True(t, ok)

	_, err = s.Ingest(context.Background(), models.KindYouTube, strings.Repeat("second ", 100), models.Metadata{Title: "second"})
	require.NoError(t, err)

	// The snapshot taken before the swap still reads the old corpus.
	assert.Equal(t, "first", snapshot.Metadata.Title)
	assert.Equal(t, models.KindPDF, snapshot.Kind)

	current, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "second", current.Metadata.Title)
}

func TestSession_IndependentInstances(t *testing.T) {
	a := newTestSession(t, newFakeEmbedder())
	b := newTestSession(t, newFakeEmbedder())

	_, err := a.Ingest(context.Background(), models.KindPDF, strings.Repeat("text ", 100), models.Metadata{})
	require.NoError(t, err)

	assert.True(t, a.Status().Active)
	assert.False(t, b.Status().Active)
}
