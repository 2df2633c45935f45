// Package chunker splits raw document text into overlapping fixed-size
// character windows. Boundaries are deterministic: the same text and
// parameters always produce the same chunks.
package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Piece is one window of the source text together with its character offset.
type Piece struct {
	Text   string
	Offset int
}

// Splitter produces consecutive windows of size characters. Each full window
// after the first repeats the previous window's last overlap characters; the
// final window takes whatever text the full windows left uncovered, even when
// shorter than size.
type Splitter struct {
	size    int
	overlap int
}

// New validates the chunking parameters. Size must be positive and overlap
// must satisfy 0 <= overlap < size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the overlap width in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// Pieces cuts text into windows in document order. Empty or whitespace-only
// input yields no pieces, which is a valid terminal result.
func (s *Splitter) Pieces(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	stride := s.size - s.overlap

	pieces := make([]Piece, 0, total/stride+1)
	covered := 0
	for start := 0; start+s.size <= total; start += stride {
		pieces = append(pieces, Piece{Text: string(runes[start : start+s.size]), Offset: start})
		covered = start + s.size
	}
	// Remainder after the last full window.
	if covered < total {
		pieces = append(pieces, Piece{Text: string(runes[covered:]), Offset: covered})
	}
	return pieces
}

// Split is Pieces without the offsets.
func (s *Splitter) Split(text string) []string {
	pieces := s.Pieces(text)
	if pieces == nil {
		return nil
	}
	chunks := make([]string, len(pieces))
	for i, p := range pieces {
		chunks[i] = p.Text
	}
	return chunks
}
