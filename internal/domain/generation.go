package domain

import "context"

// Generator is the language model contract: turn a prompt into answer text.
// Implementations return typed errors; the answer pipeline owns the
// user-facing fallback.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
