package llm

import "context"

// Provider turns a rendered prompt into an answer. Implementations do not retry.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
