package answer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
	"github.com/calia-ai/calia/internal/usecase/retrieve"
)

// Fallback is returned to the user whenever the language model cannot
// produce an answer. Callers can compare against it but should treat the
// pipeline output as opaque text.
const Fallback = "[ERROR] Failed to generate a response with the language model."

const preamble = "You are CALIA, a helpful, context-aware AI assistant.\n" +
	"Use the context below (when available) to answer naturally and to the point.\n\n"

// Retriever supplies document context for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) retrieve.Result
}

// Service runs the retrieval-augmented answer pipeline.
type Service struct {
	retriever Retriever
	generator domain.Generator
	logger    *zap.Logger
}

// New creates an answer service.
func New(retriever Retriever, generator domain.Generator, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Answer retrieves context, composes the grounded prompt, and asks the
// model. It always returns a non-empty string: generation failures yield
// the fallback text, never an error.
func (s *Service) Answer(ctx context.Context, question string) string {
	result := s.retriever.Retrieve(ctx, question)

	prompt := composePrompt(question, result.Chunks)

	s.logger.Info("answering question",
		zap.String("question", truncate(question, 80)),
		zap.Int("context_chunks", len(result.Chunks)),
		zap.Bool("degraded", result.Degraded))

	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		metrics.GenerationFallbacksTotal.Inc()
		s.logger.Error("generation failed, returning fallback", zap.Error(err))
		return Fallback
	}
	if strings.TrimSpace(reply) == "" {
		metrics.GenerationFallbacksTotal.Inc()
		s.logger.Warn("model returned empty reply, returning fallback")
		return Fallback
	}

	return reply
}

func composePrompt(question string, chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(preamble)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Chunk.Text
		}
		b.WriteString("Context:\n")
		b.WriteString(strings.Join(texts, "\n\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")

	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
