package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
)

// Generator is a language model client over the OpenAI-compatible chat
// completions API. A missing credential is detected once at construction;
// every later call short-circuits without touching the network.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	disabled    bool
	logger      *zap.Logger
}

// GeneratorConfig holds the language model settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// NewGenerator creates the language model client.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	g := &Generator{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}

	if cfg.APIKey == "" {
		g.disabled = true
		cfg.Logger.Warn("Language model API key not configured, all generations will fall back",
			zap.String("model", cfg.Model))
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.disabled {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "disabled").Inc()
		return "", fmt.Errorf("no API key configured: %w", domain.ErrGeneratorUnavailable)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", wrapGenerationError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGeneratorUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func wrapGenerationError(err error) error {
	wrap := domain.ErrGeneratorUnavailable

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
