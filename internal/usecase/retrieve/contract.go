package retrieve

import (
	"context"

	"github.com/calia-ai/calia/internal/domain"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher scans the index for the closest chunks.
type Searcher interface {
	Search(query []float32, k int, minScore float64) ([]domain.ScoredChunk, error)
	Empty() bool
}
