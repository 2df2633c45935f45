// Package session owns the process-wide corpus state: at most one document
// (PDF or YouTube transcript) is active at a time, and ingesting a new one
// replaces it wholesale.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"document-chat/internal/chunker"
	"document-chat/internal/index"
	"document-chat/internal/models"
)

// Embedder is the batch embedding capability the session depends on.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Corpus is the active document: its kind, metadata, chunks and the vector
// index built over them. Treated as immutable once published.
type Corpus struct {
	Kind     models.CorpusKind
	Metadata models.Metadata
	Chunks   []models.Chunk
	Index    *index.Index
}

// Session holds the active corpus behind a single lock. The lock guards only
// the pointer: a replacement corpus is built completely off to the side, so
// queries keep reading the old corpus until the swap and are never blocked
// on embedding computation.
type Session struct {
	splitter *chunker.Splitter
	embedder Embedder

	mu     sync.RWMutex
	corpus *Corpus
}

// New returns an empty session.
func New(splitter *chunker.Splitter, embedder Embedder) *Session {
	return &Session{splitter: splitter, embedder: embedder}
}

// Ingest chunks and embeds rawText, builds a fresh index and atomically swaps
// it in as the active corpus, reporting the chunk count. On any failure the
// previously active corpus (or empty state) is left untouched.
func (s *Session) Ingest(ctx context.Context, kind models.CorpusKind, rawText string, meta models.Metadata) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: unsupported corpus kind %q", models.ErrIngestionFailed, kind)
	}

	pieces := s.splitter.Pieces(rawText)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("%w: document contains no text", models.ErrIngestionFailed)
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// Keep the cause visible to errors.Is so callers can tell a
		// capability outage apart from a bad document.
		return 0, fmt.Errorf("%w: %w", models.ErrIngestionFailed, err)
	}

	// Vectors are matched to chunks by slice position.
	ix := index.New()
	chunks := make([]models.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = models.Chunk{
			ID:           uuid.New().String(),
			Text:         p.Text,
			SourceOffset: p.Offset,
			Sequence:     i,
			Embedding:    vectors[i],
		}
		if err := ix.Insert(chunks[i]); err != nil {
			return 0, fmt.Errorf("%w: %v", models.ErrIngestionFailed, err)
		}
	}

	next := &Corpus{Kind: kind, Metadata: meta, Chunks: chunks, Index: ix}

	s.mu.Lock()
	s.corpus = next
	s.mu.Unlock()

	log.Info().Str("kind", string(kind)).Int("chunks", len(chunks)).Str("title", meta.Title).Msg("Corpus activated")
	return len(chunks), nil
}

// Reset discards the active corpus and its index. Idempotent.
func (s *Session) Reset() {
	s.mu.Lock()
	s.corpus = nil
	s.mu.Unlock()
	log.Debug().Msg("Session reset")
}

// Status reports the current state without blocking on ingestion work.
func (s *Session) Status() models.Status {
	c, ok := s.Active()
	if !ok {
		return models.Status{}
	}
	return models.Status{Active: true, Kind: c.Kind, ChunkCount: len(c.Chunks)}
}

// Active returns the current corpus snapshot. Callers keep querying the
// snapshot they received even if a concurrent ingest swaps in a new one.
func (s *Session) Active() (*Corpus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.corpus == nil {
		return nil, false
	}
	return s.corpus, true
}
