package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-chat/internal/api"
	"document-chat/internal/chunker"
	"document-chat/internal/config"
	"document-chat/internal/embedding"
	"document-chat/internal/llmservice"
	"document-chat/internal/rag"
	"document-chat/internal/server"
	"document-chat/internal/session"
)

// engineAnswerer adapts the query engine to the HTTP handler interface.
type engineAnswerer struct {
	engine *rag.Engine
}

func (a engineAnswerer) Answer(ctx context.Context, question string) (api.AnswerStream, error) {
	st, err := a.engine.Answer(ctx, question)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	initLogger(cfg.LogLevel)

	embedder, err := newEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init embedder")
	}

	chatModel, err := llmservice.New(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init chat model")
	}

	splitter, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid chunking config")
	}

	counter, err := rag.NewTiktokenCounter()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init token counter")
	}

	gateway := embedding.NewGateway(embedder)
	sess := session.New(splitter, gateway)
	engine := rag.NewEngine(sess, gateway, chatModel, counter, rag.Config{
		TopK:             cfg.RAG.TopK,
		MaxContextTokens: cfg.RAG.MaxContextTokens,
	})

	handler := api.NewHandler(sess, engineAnswerer{engine: engine})
	srv := server.New(cfg.Server.Addr, handler)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := srv.Run(); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

func newEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func initLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(lvl).With().Timestamp().Logger()
}
