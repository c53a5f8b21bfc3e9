package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/config"
	"github.com/calia-ai/calia/internal/index"
	"github.com/calia-ai/calia/internal/ingest"
	logpkg "github.com/calia-ai/calia/internal/logger"
	"github.com/calia-ai/calia/internal/metrics"
	openaiTransport "github.com/calia-ai/calia/internal/transport/openai"
	indexeruc "github.com/calia-ai/calia/internal/usecase/indexer"
	"github.com/calia-ai/calia/internal/version"
)

func main() {
	var (
		file = flag.String("file", "", "index a single document instead of rebuilding the full corpus")
		dir  = flag.String("dir", "", "override the corpus directory from config")
	)
	flag.Parse()

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

	logger.Info("Starting calia ingest",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("index_path", cfg.Index.Path))

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	store, err := index.Open(cfg.Index.Path, cfg.Embedding.Model, logger)
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	chunker, err := ingest.NewChunker(cfg.Corpus.ChunkSize, cfg.Corpus.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}

	indexer := indexeruc.New(ingest.NewLoader(logger), chunker, embedder, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corpusDir := cfg.Corpus.Dir
	if *dir != "" {
		corpusDir = *dir
	}

	var chunks int
	if *file != "" {
		chunks, err = indexer.AppendFile(ctx, *file)
	} else {
		chunks, err = indexer.Build(ctx, corpusDir)
	}
	if err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}

	logger.Info("Ingest complete",
		zap.Int("chunks", chunks),
		zap.Int("index_size", store.Len()),
		zap.String("index_path", store.Path()))
}
