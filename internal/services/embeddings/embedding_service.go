package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/interfaces"
)

// DefaultBatchSize is the number of texts sent per provider call. Matches
// the Gemini batch embedding limit headroom used in production.
const DefaultBatchSize = 24

// Service implements EmbeddingService by slicing work into provider-sized
// batches and stitching results back together in input order.
type Service struct {
	llmService interfaces.LLMService
	modelName  string
	dimension  int
	batchSize  int
	logger     arbor.ILogger
}

// NewService creates a new embedding service. batchSize <= 0 selects the
// default.
func NewService(llmService interfaces.LLMService, modelName string, dimension, batchSize int, logger arbor.ILogger) interfaces.EmbeddingService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		llmService: llmService,
		modelName:  modelName,
		dimension:  dimension,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// EmbedTexts embeds all texts, batching provider calls. The result is
// ordered one vector per input; empty input returns an empty slice without
// touching the provider.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors := make([][]float32, 0, len(texts))

	for batchStart := 0; batchStart < len(texts); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(texts) {
			batchEnd = len(texts)
		}
		batch := texts[batchStart:batchEnd]

		batchVectors, err := s.llmService.EmbedTexts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", batchStart, batchEnd-1, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("embedding batch %d-%d returned %d vectors for %d texts", batchStart, batchEnd-1, len(batchVectors), len(batch))
		}

		vectors = append(vectors, batchVectors...)
	}

	s.logger.Debug().
		Int("text_count", len(texts)).
		Int("batch_size", s.batchSize).
		Dur("duration", time.Since(start)).
		Msg("Embedded texts")

	return vectors, nil
}

// EmbedQuery embeds a single search query
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	vectors, err := s.llmService.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("provider returned no embedding for query")
	}

	return vectors[0], nil
}

// ModelName returns the embedding model name
func (s *Service) ModelName() string {
	return s.modelName
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.dimension
}
