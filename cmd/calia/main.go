package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/config"
	"github.com/calia-ai/calia/internal/index"
	"github.com/calia-ai/calia/internal/ingest"
	logpkg "github.com/calia-ai/calia/internal/logger"
	"github.com/calia-ai/calia/internal/metrics"
	"github.com/calia-ai/calia/internal/notes"
	"github.com/calia-ai/calia/internal/transport/httpapi"
	openaiTransport "github.com/calia-ai/calia/internal/transport/openai"
	answeruc "github.com/calia-ai/calia/internal/usecase/answer"
	archiveuc "github.com/calia-ai/calia/internal/usecase/archive"
	healthuc "github.com/calia-ai/calia/internal/usecase/health"
	indexeruc "github.com/calia-ai/calia/internal/usecase/indexer"
	retrieveuc "github.com/calia-ai/calia/internal/usecase/retrieve"
	"github.com/calia-ai/calia/internal/version"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting calia assistant server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Index.Path),
		zap.String("corpus_dir", cfg.Corpus.Dir),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	store, err := index.Open(cfg.Index.Path, cfg.Embedding.Model, logger)
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}
	logger.Info("Index loaded",
		zap.Int("chunks", store.Len()),
		zap.String("model", store.Model()))

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	chunker, err := ingest.NewChunker(cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}
	loader := ingest.NewLoader(logger)

	noteLog := notes.NewLog(cfg.Notes.Path, logger)

	indexer := indexeruc.New(loader, chunker, embedder, store, logger)
	retriever := retrieveuc.New(embedder, store, cfg.Index.TopK, cfg.Index.MinScore, logger)
	answerer := answeruc.New(retriever, generator, logger)
	archiver := archiveuc.New(cfg.Corpus.Dir, indexer, logger)
	health := healthuc.New(store, embedder)

	server := httpapi.NewServer(answerer, archiver, noteLog, health, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
