package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/models"
)

// MaterialStorage implements the MaterialStorage interface for Badger
type MaterialStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMaterialStorage creates a new MaterialStorage instance
func NewMaterialStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MaterialStorage {
	return &MaterialStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MaterialStorage) SaveMaterial(material *models.Material) error {
	if material.OwnerID == "" {
		return fmt.Errorf("material owner ID is required")
	}
	if material.ID == "" {
		material.ID = common.NewMaterialID()
	}
	if material.ClassName == "" {
		material.ClassName = models.DefaultClassName
	}
	if material.RagStatus == "" {
		material.RagStatus = models.RagStatusIdle
	}

	now := time.Now()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now

	if err := s.db.Store().Upsert(material.ID, material); err != nil {
		return fmt.Errorf("failed to save material: %w", err)
	}
	return nil
}

func (s *MaterialStorage) GetMaterial(id string) (*models.Material, error) {
	var material models.Material
	if err := s.db.Store().Get(id, &material); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrMaterialNotFound, id)
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return &material, nil
}

func (s *MaterialStorage) UpdateMaterial(material *models.Material) error {
	if material.ID == "" {
		return fmt.Errorf("material ID is required")
	}
	return s.SaveMaterial(material)
}

func (s *MaterialStorage) DeleteMaterial(id string) error {
	if err := s.db.Store().Delete(id, &models.Material{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

func (s *MaterialStorage) ListMaterials(ownerID string, opts *interfaces.ListOptions) ([]*models.Material, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}

	query := badgerhold.Where("OwnerID").Eq(ownerID).SortBy("CreatedAt").Reverse()
	applyListOptions(query, opts)

	var materials []models.Material
	if err := s.db.Store().Find(&materials, query); err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	return asMaterialPointers(materials), nil
}

func (s *MaterialStorage) ListMaterialsByClass(ownerID, className string, opts *interfaces.ListOptions) ([]*models.Material, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}

	query := badgerhold.Where("OwnerID").Eq(ownerID).And("ClassName").Eq(className).SortBy("CreatedAt").Reverse()
	applyListOptions(query, opts)

	var materials []models.Material
	if err := s.db.Store().Find(&materials, query); err != nil {
		return nil, fmt.Errorf("failed to list materials by class: %w", err)
	}

	return asMaterialPointers(materials), nil
}

// SetRagStatus transitions a material's indexing status and stamps
// RagUpdatedAt, which the janitor uses to detect stuck runs.
func (s *MaterialStorage) SetRagStatus(id string, status models.RagStatus) error {
	material, err := s.GetMaterial(id)
	if err != nil {
		return err
	}

	material.RagStatus = status
	material.RagUpdatedAt = time.Now()

	if err := s.db.Store().Upsert(material.ID, material); err != nil {
		return fmt.Errorf("failed to update rag status: %w", err)
	}

	s.logger.Debug().
		Str("material_id", id).
		Str("rag_status", string(status)).
		Msg("Material rag status updated")

	return nil
}

// GetStuckIndexing returns materials that entered "indexing" before the
// cutoff and never left it
func (s *MaterialStorage) GetStuckIndexing(olderThan time.Time) ([]*models.Material, error) {
	var materials []models.Material
	err := s.db.Store().Find(&materials, badgerhold.Where("RagStatus").Eq(models.RagStatusIndexing))
	if err != nil {
		return nil, fmt.Errorf("failed to find indexing materials: %w", err)
	}

	var stuck []*models.Material
	for i := range materials {
		if materials[i].RagUpdatedAt.Before(olderThan) {
			stuck = append(stuck, &materials[i])
		}
	}
	return stuck, nil
}

func (s *MaterialStorage) CountMaterials(ownerID string) (int, error) {
	count, err := s.db.Store().Count(&models.Material{}, badgerhold.Where("OwnerID").Eq(ownerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return int(count), nil
}

func applyListOptions(query *badgerhold.Query, opts *interfaces.ListOptions) {
	if opts == nil {
		return
	}
	if opts.Offset > 0 {
		query.Skip(opts.Offset)
	}
	if opts.Limit > 0 {
		query.Limit(opts.Limit)
	}
}

func asMaterialPointers(materials []models.Material) []*models.Material {
	result := make([]*models.Material, len(materials))
	for i := range materials {
		result[i] = &materials[i]
	}
	return result
}
