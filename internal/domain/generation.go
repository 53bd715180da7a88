package domain

import "context"

// Generator is the grounded-generation contract. Implementations answer the
// prompt strictly from the supplied system instructions.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (GenerationResult, error)
	// Model returns the generation model identifier.
	Model() string
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
