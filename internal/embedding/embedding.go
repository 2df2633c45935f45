// Package embedding is the gateway to the external embedding capability. It
// wraps a langchaingo embedder behind a batch contract: one vector per input
// text, in input order, single attempt per call.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

// NewOpenAIEmbedder builds a langchaingo embedder backed by an
// OpenAI-compatible endpoint.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder builds a langchaingo embedder backed by a local Ollama
// server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// Gateway adapts an embedder to the core batch contract and classifies its
// failures as models.ErrEmbeddingUnavailable.
type Gateway struct {
	embedder embeddings.Embedder
}

// NewGateway wraps the given embedder.
func NewGateway(e embeddings.Embedder) *Gateway {
	return &Gateway{embedder: e}
}

// EmbedBatch returns one vector per text, in the same order as the input.
// Vectors are re-associated with their texts by slice position, so callers
// can rely on index alignment regardless of how the provider batches
// internally. The gateway makes a single attempt; retry policy belongs to
// the capability boundary, not here.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := g.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", models.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector at position %d", models.ErrEmbeddingUnavailable, i)
		}
	}

	log.Debug().Int("texts", len(texts)).Int("dimension", len(vectors[0])).Msg("Embedded batch")
	return vectors, nil
}
