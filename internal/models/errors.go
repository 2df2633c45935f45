package models

import "errors"

// Failure taxonomy shared by the core packages. Callers classify failures with
// errors.Is and render the wrapped message to the user.
var (
	// ErrNoActiveCorpus is returned when a question arrives before any
	// successful ingestion.
	ErrNoActiveCorpus = errors.New("no active corpus")

	// ErrEmbeddingUnavailable is returned when the embedding capability is
	// unreachable or returns malformed output.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrGenerationFailed is returned when the generation capability fails,
	// before or in the middle of a stream.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrIngestionFailed wraps any failure during chunking or embedding of a
	// new document. The previously active corpus is never touched.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrDuplicateChunkID signals an internal invariant violation in the
	// vector index. It should never surface to a caller.
	ErrDuplicateChunkID = errors.New("duplicate chunk id")
)
