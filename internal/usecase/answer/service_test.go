package answer

import (
	"context"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
	"github.com/calia-ai/calia/internal/usecase/retrieve"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockRetriever struct {
	result retrieve.Result
}

func (m *mockRetriever) Retrieve(context.Context, string) retrieve.Result { return m.result }

type mockGenerator struct {
	reply     string
	err       error
	gotPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.gotPrompt = prompt
	return m.reply, m.err
}

func TestAnswer_WithContext(t *testing.T) {
	gen := &mockGenerator{reply: "grounded answer"}
	svc := New(&mockRetriever{result: retrieve.Result{Chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{Text: "first fact"}, Score: 0.9},
		{Chunk: domain.Chunk{Text: "second fact"}, Score: 0.8},
	}}}, gen, zap.NewNop())

	got := svc.Answer(context.Background(), "what happened?")
	if got != "grounded answer" {
		t.Errorf("answer = %q", got)
	}

	if !strings.Contains(gen.gotPrompt, "Context:\nfirst fact\n\nsecond fact\n\n") {
		t.Errorf("prompt missing joined context:\n%s", gen.gotPrompt)
	}
	if !strings.Contains(gen.gotPrompt, "Question: what happened?\n\nAnswer:") {
		t.Errorf("prompt missing question cue:\n%s", gen.gotPrompt)
	}
}

func TestAnswer_DegradedOmitsContextSection(t *testing.T) {
	gen := &mockGenerator{reply: "model-only answer"}
	svc := New(&mockRetriever{result: retrieve.Result{
		Degraded: true, Reason: retrieve.ReasonEmptyIndex,
	}}, gen, zap.NewNop())

	got := svc.Answer(context.Background(), "hello")
	if got != "model-only answer" {
		t.Errorf("answer = %q", got)
	}
	if strings.Contains(gen.gotPrompt, "Context:") {
		t.Errorf("degraded prompt must not carry a context section:\n%s", gen.gotPrompt)
	}
}

func TestAnswer_GeneratorFailureReturnsFallback(t *testing.T) {
	gen := &mockGenerator{err: domain.ErrGeneratorUnavailable}
	svc := New(&mockRetriever{}, gen, zap.NewNop())

	got := svc.Answer(context.Background(), "q")
	if got != Fallback {
		t.Errorf("answer = %q, want fallback", got)
	}
}

func TestAnswer_EmptyReplyReturnsFallback(t *testing.T) {
	gen := &mockGenerator{reply: "   \n"}
	svc := New(&mockRetriever{}, gen, zap.NewNop())

	if got := svc.Answer(context.Background(), "q"); got != Fallback {
		t.Errorf("answer = %q, want fallback", got)
	}
}
