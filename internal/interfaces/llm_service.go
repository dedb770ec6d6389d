package interfaces

import (
	"context"
)

// LLMService defines the interface for language model operations: embedding
// generation and grounded answer generation. Implementations wrap cloud APIs
// (Gemini, Anthropic); the embedding side is always Gemini since Anthropic
// exposes no embedding endpoint.
type LLMService interface {
	// EmbedTexts generates one embedding vector per input text, in input
	// order. The returned slice always has the same length as texts; a
	// provider response with a different count is an error.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// GenerateAnswer produces a completion for the given prompts. The
	// system prompt carries the grounding instructions; the user prompt
	// carries the question and retrieved context.
	GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// HealthCheck verifies the provider is reachable and authenticated
	HealthCheck(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
