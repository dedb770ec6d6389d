package models

import "time"

// MetadataChunkIndex is the metadata key carrying a chunk's absolute ordinal
// position within its material, continuous across embedding batches.
const MetadataChunkIndex = "chunkIndex"

// Chunk is the unit of retrieval: a bounded, possibly-overlapping fragment of
// a material's text together with its embedding vector.
//
// Chunks are created only by the indexing service, read only by similarity
// search, and removed either by re-indexing (full replacement) or when the
// parent material is deleted. They are never mutated in place.
type Chunk struct {
	// Identity
	ID         string `json:"id"` // chk_{uuid}
	OwnerID    string `json:"owner_id"`
	MaterialID string `json:"material_id"`

	// Denormalized from the parent material at index time, enabling
	// class-scoped search without a join
	ClassName  string `json:"class_name"`
	SourceFile string `json:"source_file"`

	// Optional location hints for citations
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`

	// Content
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`

	// Free-form metadata; always carries MetadataChunkIndex
	Metadata map[string]interface{} `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}

// ChunkIndex returns the chunk's ordinal position within its material, or -1
// when the metadata is missing or malformed.
func (c *Chunk) ChunkIndex() int {
	if c.Metadata == nil {
		return -1
	}
	switch v := c.Metadata[MetadataChunkIndex].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return -1
}
