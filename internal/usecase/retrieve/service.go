package retrieve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
)

// Degradation reasons reported when retrieval returns no usable context.
const (
	ReasonEmptyIndex     = "empty_index"
	ReasonEmbedFailed    = "embed_failed"
	ReasonSearchFailed   = "search_failed"
	ReasonBelowThreshold = "below_threshold"
)

// Result is what retrieval hands to the answer pipeline. Degraded means
// the answer must proceed without document context; the pipeline decides
// how, retrieval only reports why.
type Result struct {
	Chunks   []domain.ScoredChunk
	Degraded bool
	Reason   string
}

// Service retrieves the chunks most similar to a question.
type Service struct {
	embed    Embedder
	searcher Searcher
	topK     int
	minScore float64
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(embed Embedder, searcher Searcher, topK int, minScore float64, logger *zap.Logger) *Service {
	return &Service{embed: embed, searcher: searcher, topK: topK, minScore: minScore, logger: logger}
}

// Retrieve embeds the question and searches the index. It never fails:
// any error downgrades to an empty, degraded result so the caller can
// still answer from the model alone.
func (s *Service) Retrieve(ctx context.Context, question string) Result {
	if s.searcher.Empty() {
		return s.degraded(ReasonEmptyIndex, nil)
	}

	embResult, err := s.embed.Embed(ctx, question)
	if err != nil {
		return s.degraded(ReasonEmbedFailed, err)
	}

	start := time.Now()
	hits, err := s.searcher.Search(embResult.Embedding, s.topK, s.minScore)
	if err != nil {
		return s.degraded(ReasonSearchFailed, err)
	}
	metrics.RetrievalSearchDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalChunks.Observe(float64(len(hits)))

	if len(hits) == 0 {
		return s.degraded(ReasonBelowThreshold, nil)
	}

	return Result{Chunks: hits}
}

func (s *Service) degraded(reason string, err error) Result {
	metrics.RetrievalDegradedTotal.WithLabelValues(reason).Inc()
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Warn("retrieval degraded", fields...)
	return Result{Degraded: true, Reason: reason}
}
