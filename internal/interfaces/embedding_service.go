package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings in provider-sized batches
type EmbeddingService interface {
	// EmbedTexts embeds all texts, batching provider calls and preserving
	// input order. Empty input returns an empty slice without any API call.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int
}
