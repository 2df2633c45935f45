package models

// CorpusKind identifies the type of document the active corpus was built from.
type CorpusKind string

const (
	KindPDF     CorpusKind = "pdf"
	KindYouTube CorpusKind = "youtube"
)

// Valid reports whether the kind is one of the supported corpus kinds.
func (k CorpusKind) Valid() bool {
	return k == KindPDF || k == KindYouTube
}

// Metadata carries optional document-level information supplied at ingestion.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Chunk is the unit of retrieval: a contiguous slice of document text with
// its position and embedding. Immutable once the embedding is set.
type Chunk struct {
	ID           string
	Text         string
	SourceOffset int
	Sequence     int
	Embedding    []float32
}

// SearchResult pairs a chunk with its similarity score for one query.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Status is a read-only snapshot of the session state.
type Status struct {
	Active     bool       `json:"active"`
	Kind       CorpusKind `json:"kind,omitempty"`
	ChunkCount int        `json:"chunk_count"`
}
