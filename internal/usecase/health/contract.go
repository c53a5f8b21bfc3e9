package health

import "context"

// IndexReader exposes the state of the vector index.
type IndexReader interface {
	Len() int
	Model() string
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
