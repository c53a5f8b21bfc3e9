package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
)

// Service builds and extends the vector index from corpus documents.
type Service struct {
	loader  Loader
	chunker Chunker
	embed   Embedder
	store   Store
	logger  *zap.Logger
}

// New creates an indexer service.
func New(loader Loader, chunker Chunker, embed Embedder, store Store, logger *zap.Logger) *Service {
	return &Service{loader: loader, chunker: chunker, embed: embed, store: store, logger: logger}
}

// Build loads every document under dir, chunks and embeds them, and
// replaces the index contents atomically. An empty corpus yields an
// empty index, not an error.
func (s *Service) Build(ctx context.Context, dir string) (int, error) {
	docs, err := s.loader.LoadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	chunks := s.chunker.Split(docs)
	if len(chunks) == 0 {
		s.logger.Info("corpus produced no chunks, index left empty", zap.String("dir", dir))
		if err = s.store.ReplaceAll(nil, nil); err != nil {
			return 0, fmt.Errorf("persist empty index: %w", err)
		}
		return 0, nil
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err = s.store.ReplaceAll(chunks, vectors); err != nil {
		return 0, fmt.Errorf("persist index: %w", err)
	}

	s.logger.Info("index rebuilt",
		zap.String("dir", dir),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// AppendFile indexes a single document into the existing index without
// touching prior entries.
func (s *Service) AppendFile(ctx context.Context, path string) (int, error) {
	doc, err := s.loader.LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}
	return s.Append(ctx, doc)
}

// Append chunks, embeds, and appends one document to the index.
func (s *Service) Append(ctx context.Context, doc domain.Document) (int, error) {
	chunks := s.chunker.SplitDocument(doc)
	if len(chunks) == 0 {
		s.logger.Info("document produced no chunks", zap.String("source", doc.Source))
		return 0, nil
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err = s.store.Add(chunks, vectors); err != nil {
		return 0, fmt.Errorf("append to index: %w", err)
	}

	s.logger.Info("document indexed",
		zap.String("source", doc.Source),
		zap.Int("chunks", len(chunks)),
		zap.Int("index_size", s.store.Len()))

	return len(chunks), nil
}

func (s *Service) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	result, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(result.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks",
			len(result.Embeddings), len(chunks))
	}
	return result.Embeddings, nil
}
