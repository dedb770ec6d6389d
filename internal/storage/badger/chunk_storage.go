package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/models"
)

// ChunkStorage implements the ChunkStorage interface for Badger. Similarity
// search is a brute-force cosine scan over the owner's candidate set; the
// corpus per user is small enough that an approximate index would cost more
// than it saves.
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceChunks deletes a material's existing chunks and writes the new set.
// A reader between the two steps can observe an empty corpus for the
// material; the material's ragStatus is "indexing" for that window.
func (s *ChunkStorage) ReplaceChunks(materialID string, chunks []*models.Chunk) error {
	if materialID == "" {
		return fmt.Errorf("material ID is required")
	}

	if err := s.DeleteByMaterial(materialID); err != nil {
		return fmt.Errorf("failed to clear existing chunks: %w", err)
	}

	now := time.Now()
	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = common.NewChunkID()
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.MaterialID = materialID

		if err := s.db.Store().Insert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	s.logger.Debug().
		Str("material_id", materialID).
		Int("chunk_count", len(chunks)).
		Msg("Replaced material chunks")

	return nil
}

// Search scores up to numCandidates chunks matching the filter against the
// query embedding and returns the topK best in descending score order.
// Chunks whose stored embedding has a different dimensionality (written
// under an older model) score zero and effectively never rank.
func (s *ChunkStorage) Search(embedding []float32, filter interfaces.ChunkFilter, topK, numCandidates int) ([]interfaces.ChunkMatch, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("owner ID is required for chunk search")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	query := badgerhold.Where("OwnerID").Eq(filter.OwnerID)
	if filter.ClassName != "" {
		query = query.And("ClassName").Eq(filter.ClassName)
	}
	if len(filter.MaterialIDs) > 0 {
		ids := make([]interface{}, len(filter.MaterialIDs))
		for i, id := range filter.MaterialIDs {
			ids[i] = id
		}
		query = query.And("MaterialID").In(ids...)
	}
	if numCandidates > 0 {
		query.Limit(numCandidates)
	}

	var candidates []models.Chunk
	if err := s.db.Store().Find(&candidates, query); err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	matches := make([]interfaces.ChunkMatch, 0, len(candidates))
	for i := range candidates {
		matches = append(matches, interfaces.ChunkMatch{
			Chunk: &candidates[i],
			Score: CosineSimilarity(embedding, candidates[i].Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *ChunkStorage) GetChunksByMaterial(materialID string) ([]*models.Chunk, error) {
	var chunks []models.Chunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("MaterialID").Eq(materialID)); err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}

	result := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ChunkIndex() < result[j].ChunkIndex()
	})
	return result, nil
}

func (s *ChunkStorage) DeleteByMaterial(materialID string) error {
	err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("MaterialID").Eq(materialID))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *ChunkStorage) CountByMaterial(materialID string) (int, error) {
	count, err := s.db.Store().Count(&models.Chunk{}, badgerhold.Where("MaterialID").Eq(materialID))
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}
