package interfaces

import (
	"context"
)

// IndexingResult summarizes a completed indexing run
type IndexingResult struct {
	MaterialID string
	ChunkCount int
}

// IndexingService rebuilds the chunk corpus for a material: extract text,
// chunk, embed, and replace stored chunks, driving the material's ragStatus
// through indexing -> ready|failed.
type IndexingService interface {
	// IndexMaterial runs the full pipeline synchronously
	IndexMaterial(ctx context.Context, materialID string) (*IndexingResult, error)

	// IndexMaterialInBackground schedules IndexMaterial on a panic-protected
	// goroutine and returns immediately. Failures land in the material's
	// ragStatus, not in the caller.
	IndexMaterialInBackground(materialID string)

	// Start launches the stuck-indexing janitor; Stop halts it
	Start() error
	Stop()
}
