package models

import "time"

// RagStatus tracks the indexing lifecycle of a material.
// Transitions: idle -> indexing -> ready|failed. Re-upload or re-index
// moves a material back to indexing.
type RagStatus string

const (
	RagStatusIdle     RagStatus = "idle"
	RagStatusIndexing RagStatus = "indexing"
	RagStatusReady    RagStatus = "ready"
	RagStatusFailed   RagStatus = "failed"
)

// Material represents an uploaded learning material with its extracted text.
// Authentication and file storage are handled upstream; this service owns the
// content, the class label, and the RAG indexing status.
type Material struct {
	// Identity
	ID      string `json:"id"` // mat_{uuid}
	OwnerID string `json:"owner_id"`

	// Upload metadata
	OriginalName string `json:"original_name"` // Original filename from upload
	MimeType     string `json:"mime_type"`
	ClassName    string `json:"class_name"` // Defaults to "Uncategorized"

	// Extracted text content (via the extract service or direct text read)
	Content string `json:"content"`

	// Indexing status, mutated only by the indexing service
	RagStatus    RagStatus `json:"rag_status"`
	RagUpdatedAt time.Time `json:"rag_updated_at"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultClassName is applied when an upload carries no class label.
const DefaultClassName = "Uncategorized"
