// Package rag answers questions about the active corpus: it embeds the
// question, retrieves the most similar chunks, assembles a bounded context
// and streams the model's answer back to the caller.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"document-chat/internal/models"
	"document-chat/internal/session"
)

const (
	DefaultTopK             = 3
	DefaultMaxContextTokens = 3000

	contextEncoding = "cl100k_base"
)

// Embedder is the batch embedding capability used for the question.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenCounter measures chunk sizes against the context budget.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a TokenCounter backed by the cl100k_base BPE.
func NewTiktokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(contextEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Config bounds retrieval and context assembly.
type Config struct {
	TopK             int
	MaxContextTokens int
}

// Engine is the query side of the pipeline. It only ever reads the session's
// corpus snapshot, so any number of Answer calls may run concurrently with
// each other and with an ingest.
type Engine struct {
	session  *session.Session
	embedder Embedder
	model    llms.Model
	counter  TokenCounter

	topK             int
	maxContextTokens int
}

// NewEngine wires the engine to its collaborators.
func NewEngine(sess *session.Session, embedder Embedder, model llms.Model, counter TokenCounter, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultMaxContextTokens
	}
	return &Engine{
		session:          sess,
		embedder:         embedder,
		model:            model,
		counter:          counter,
		topK:             cfg.TopK,
		maxContextTokens: cfg.MaxContextTokens,
	}
}

// Stream is a lazy, finite sequence of answer fragments. It is not
// restartable; issue a new Answer call instead. Err is meaningful only after
// Fragments has been closed and reports how the stream ended.
type Stream struct {
	ch  chan string
	err error
}

// Fragments yields answer fragments in arrival order. The channel is closed
// when generation completes, fails or is cancelled.
func (s *Stream) Fragments() <-chan string { return s.ch }

// Err reports the terminal error, if any, once Fragments is closed.
// Fragments delivered before the failure are not retracted.
func (s *Stream) Err() error { return s.err }

// Answer embeds the question, retrieves the top-k most similar chunks and
// streams the generated answer. Retrieval and embedding failures surface
// synchronously; generation failures terminate the returned stream.
func (e *Engine) Answer(ctx context.Context, question string) (*Stream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question must not be empty")
	}

	// Checked before any network call is attempted.
	corpus, ok := e.session.Active()
	if !ok {
		return nil, models.ErrNoActiveCorpus
	}

	vectors, err := e.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, err
	}

	results := corpus.Index.Search(vectors[0], e.topK)
	contextText, used := e.assembleContext(results)
	log.Debug().Int("retrieved", len(results)).Int("used", used).Msg("Assembled context")

	if contextText == "" {
		contextText = noContextMarker
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPromptTemplate, contextText)),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}

	st := &Stream{ch: make(chan string)}
	go func() {
		defer close(st.ch)
		_, genErr := e.model.GenerateContent(ctx, messages,
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case st.ch <- string(chunk):
					return nil
				case <-ctx.Done():
					// Caller abandoned the stream: stop forwarding and let
					// the generation call unwind.
					return ctx.Err()
				}
			}))
		switch {
		case genErr == nil:
		case errors.Is(genErr, context.Canceled) || errors.Is(genErr, context.DeadlineExceeded):
			st.err = genErr
		default:
			st.err = fmt.Errorf("%w: %v", models.ErrGenerationFailed, genErr)
		}
	}()
	return st, nil
}

// assembleContext concatenates retrieved chunk texts in descending
// similarity order under the token budget. Chunks that would push the total
// over the budget are dropped whole, lowest similarity first.
func (e *Engine) assembleContext(results []models.SearchResult) (string, int) {
	if len(results) == 0 {
		return "", 0
	}

	separatorCost := e.counter.Count(contextSeparator)
	var b strings.Builder
	total := 0
	used := 0
	for _, r := range results {
		cost := e.counter.Count(r.Chunk.Text)
		if used > 0 {
			cost += separatorCost
		}
		if total+cost > e.maxContextTokens {
			break
		}
		if used > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(r.Chunk.Text)
		total += cost
		used++
	}
	return b.String(), used
}
