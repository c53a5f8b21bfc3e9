package indexer

import (
	"context"

	"github.com/calia-ai/calia/internal/domain"
)

// Embedder vectorizes chunk batches for indexing.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Store persists chunk vectors for later retrieval.
type Store interface {
	ReplaceAll(chunks []domain.Chunk, vectors [][]float32) error
	Add(chunks []domain.Chunk, vectors [][]float32) error
	Len() int
}

// Loader reads documents from the corpus directory.
type Loader interface {
	LoadDir(dir string) ([]domain.Document, error)
	LoadFile(path string) (domain.Document, error)
}

// Chunker splits documents into indexable chunks.
type Chunker interface {
	Split(docs []domain.Document) []domain.Chunk
	SplitDocument(doc domain.Document) []domain.Chunk
}
