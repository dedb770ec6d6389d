// Package indexing coordinates the RAG pipeline for one material: extract
// chunks from its text, embed them, and swap the stored chunk set, driving
// the material's ragStatus through indexing -> ready|failed.
package indexing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/models"
	"github.com/ternarybob/studeo/internal/services/chunker"
)

// Service implements the IndexingService interface
type Service struct {
	materialStorage interfaces.MaterialStorage
	chunkStorage    interfaces.ChunkStorage
	embedder        interfaces.EmbeddingService
	chunker         *chunker.Chunker
	stuckAfter      time.Duration
	schedule        string
	janitor         *janitor
	logger          arbor.ILogger
}

// NewService creates a new indexing service
func NewService(
	storage interfaces.StorageManager,
	embedder interfaces.EmbeddingService,
	textChunker *chunker.Chunker,
	ragConfig *common.RAGConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		materialStorage: storage.MaterialStorage(),
		chunkStorage:    storage.ChunkStorage(),
		embedder:        embedder,
		chunker:         textChunker,
		stuckAfter:      ragConfig.StuckAfter(),
		schedule:        ragConfig.JanitorSchedule,
		logger:          logger,
	}
}

// IndexMaterial runs the full pipeline synchronously. Any pipeline failure
// resolves to ragStatus "failed"; only a missing material propagates without
// a status update.
func (s *Service) IndexMaterial(ctx context.Context, materialID string) (*interfaces.IndexingResult, error) {
	material, err := s.materialStorage.GetMaterial(materialID)
	if err != nil {
		return nil, err
	}

	if err := s.materialStorage.SetRagStatus(materialID, models.RagStatusIndexing); err != nil {
		return nil, fmt.Errorf("failed to mark material indexing: %w", err)
	}

	startTime := time.Now()
	result, err := s.runPipeline(ctx, material)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("material_id", materialID).
			Msg("Indexing failed")

		if statusErr := s.materialStorage.SetRagStatus(materialID, models.RagStatusFailed); statusErr != nil {
			s.logger.Error().Err(statusErr).Str("material_id", materialID).Msg("Failed to mark material failed")
		}
		return nil, err
	}

	if err := s.materialStorage.SetRagStatus(materialID, models.RagStatusReady); err != nil {
		return nil, fmt.Errorf("failed to mark material ready: %w", err)
	}

	s.logger.Info().
		Str("material_id", materialID).
		Int("chunk_count", result.ChunkCount).
		Dur("duration", time.Since(startTime)).
		Msg("Material indexed")

	return result, nil
}

func (s *Service) runPipeline(ctx context.Context, material *models.Material) (*interfaces.IndexingResult, error) {
	if strings.TrimSpace(material.Content) == "" {
		return nil, fmt.Errorf("material %s has no indexable text", material.ID)
	}

	texts := s.chunker.Split(material.Content)
	if len(texts) == 0 {
		return nil, fmt.Errorf("chunking material %s produced no chunks", material.ID)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	// chunkIndex is the absolute position across the whole material,
	// continuous across embedding batches
	chunks := make([]*models.Chunk, len(texts))
	for i := range texts {
		chunks[i] = &models.Chunk{
			ID:         common.NewChunkID(),
			OwnerID:    material.OwnerID,
			MaterialID: material.ID,
			ClassName:  material.ClassName,
			SourceFile: material.OriginalName,
			Text:       texts[i],
			Embedding:  vectors[i],
			Metadata: map[string]interface{}{
				models.MetadataChunkIndex: i,
			},
		}
	}

	if err := s.chunkStorage.ReplaceChunks(material.ID, chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	return &interfaces.IndexingResult{
		MaterialID: material.ID,
		ChunkCount: len(chunks),
	}, nil
}

// IndexMaterialInBackground schedules IndexMaterial on a panic-protected
// goroutine and returns immediately. Errors resolve into the material's
// ragStatus and are never propagated to the caller.
func (s *Service) IndexMaterialInBackground(materialID string) {
	common.SafeGo(s.logger, "indexMaterial", func() {
		if _, err := s.IndexMaterial(context.Background(), materialID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("material_id", materialID).
				Msg("Background indexing did not complete")
		}
	})
}
