package interfaces

import (
	"context"
)

// RAGSearchRequest is a similarity search over a user's indexed materials.
// TopK <= 0 selects the configured default; values above the configured
// maximum are clamped.
type RAGSearchRequest struct {
	OwnerID     string
	Query       string
	TopK        int
	MaterialIDs []string // Optional: restrict to these materials
	ClassName   string   // Optional: restrict to one class
}

// RAGSearchHit is one retrieved chunk with its similarity score
type RAGSearchHit struct {
	ChunkID    string                 `json:"id"`
	MaterialID string                 `json:"material"`
	SourceFile string                 `json:"sourceFile"`
	ClassName  string                 `json:"className"`
	Page       int                    `json:"page,omitempty"`
	Section    string                 `json:"section,omitempty"`
	Text       string                 `json:"text"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// RAGAnswerResult is a generated answer with the chunks it was grounded on
type RAGAnswerResult struct {
	Answer  string         `json:"answer"`
	Sources []RAGSearchHit `json:"sources"`
	Model   string         `json:"model"`
}

// RAGService answers questions over a user's indexed study materials
type RAGService interface {
	// Search retrieves the chunks most similar to the query
	Search(ctx context.Context, req RAGSearchRequest) ([]RAGSearchHit, error)

	// Answer retrieves context and generates a grounded answer. When
	// retrieval returns nothing the result carries a fixed
	// insufficient-context answer and no sources.
	Answer(ctx context.Context, req RAGSearchRequest) (*RAGAnswerResult, error)
}
