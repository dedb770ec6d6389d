package interfaces

import (
	"errors"
	"time"

	"github.com/ternarybob/studeo/internal/models"
)

// ErrMaterialNotFound is returned by MaterialStorage implementations when a
// material ID does not exist
var ErrMaterialNotFound = errors.New("material not found")

// ListOptions controls pagination for list operations
type ListOptions struct {
	Limit  int
	Offset int
}

// MaterialStorage - interface for learning material persistence
type MaterialStorage interface {
	// CRUD operations
	SaveMaterial(material *models.Material) error
	GetMaterial(id string) (*models.Material, error)
	UpdateMaterial(material *models.Material) error
	DeleteMaterial(id string) error

	// List operations
	ListMaterials(ownerID string, opts *ListOptions) ([]*models.Material, error)
	ListMaterialsByClass(ownerID, className string, opts *ListOptions) ([]*models.Material, error)

	// Indexing status operations
	SetRagStatus(id string, status models.RagStatus) error
	GetStuckIndexing(olderThan time.Time) ([]*models.Material, error)

	// Stats operations
	CountMaterials(ownerID string) (int, error)
}

// ChunkFilter narrows a similarity search to a subset of the chunk corpus.
// OwnerID is mandatory; MaterialIDs and ClassName are optional refinements.
type ChunkFilter struct {
	OwnerID     string
	MaterialIDs []string
	ClassName   string
}

// ChunkMatch is a single similarity search hit
type ChunkMatch struct {
	Chunk *models.Chunk
	Score float64 // Cosine similarity in [-1, 1], higher is closer
}

// ChunkStorage - interface for embedded chunk persistence and vector search
type ChunkStorage interface {
	// ReplaceChunks atomically swaps all chunks for a material: existing
	// chunks are deleted before the new set is written
	ReplaceChunks(materialID string, chunks []*models.Chunk) error

	// Search scores candidate chunks against the query embedding and
	// returns the topK best matches in descending score order
	Search(embedding []float32, filter ChunkFilter, topK, numCandidates int) ([]ChunkMatch, error)

	// GetChunksByMaterial returns a material's chunks ordered by chunk index
	GetChunksByMaterial(materialID string) ([]*models.Chunk, error)

	// DeleteByMaterial removes all chunks belonging to a material
	DeleteByMaterial(materialID string) error

	// CountByMaterial returns the number of stored chunks for a material
	CountByMaterial(materialID string) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	MaterialStorage() MaterialStorage
	ChunkStorage() ChunkStorage
	DB() interface{}
	Close() error
}
