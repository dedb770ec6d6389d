// Package rag orchestrates retrieval and grounded answer generation over a
// user's indexed study materials. Search embeds the query and ranks stored
// chunks by cosine similarity; Answer feeds the top hits to the generation
// model with instructions to stay inside the retrieved context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
)

// Service implements interfaces.RAGService
type Service struct {
	materials interfaces.MaterialStorage
	chunks    interfaces.ChunkStorage
	embedder  interfaces.EmbeddingService
	generator interfaces.LLMService

	model         string
	defaultTopK   int
	maxTopK       int
	numCandidates int

	logger arbor.ILogger
}

var _ interfaces.RAGService = (*Service)(nil)

// NewService creates the query/answer orchestrator. All collaborators are
// injected; the service holds no hidden client state of its own.
func NewService(
	storage interfaces.StorageManager,
	embedder interfaces.EmbeddingService,
	generator interfaces.LLMService,
	generationModel string,
	ragConfig *common.RAGConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		materials:     storage.MaterialStorage(),
		chunks:        storage.ChunkStorage(),
		embedder:      embedder,
		generator:     generator,
		model:         generationModel,
		defaultTopK:   ragConfig.TopK,
		maxTopK:       ragConfig.MaxTopK,
		numCandidates: ragConfig.NumCandidates,
		logger:        logger,
	}
}

// Search embeds the query and returns the closest chunks in descending
// similarity order, scoped to the requesting owner.
func (s *Service) Search(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if req.OwnerID == "" {
		return nil, ErrOwnerRequired
	}

	if err := s.checkMaterialAccess(req.OwnerID, req.MaterialIDs); err != nil {
		return nil, err
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := interfaces.ChunkFilter{
		OwnerID:     req.OwnerID,
		MaterialIDs: req.MaterialIDs,
		ClassName:   strings.TrimSpace(req.ClassName),
	}
	matches, err := s.chunks.Search(embedding, filter, s.clampTopK(req.TopK), s.numCandidates)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	hits := make([]interfaces.RAGSearchHit, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, hitFromMatch(match))
	}

	s.logger.Debug().
		Str("owner_id", req.OwnerID).
		Int("hits", len(hits)).
		Msg("RAG search completed")

	return hits, nil
}

// Answer retrieves context for the query and generates a grounded answer.
// Zero retrieval results short-circuit to the fixed insufficient-context
// answer without touching the generation model.
func (s *Service) Answer(ctx context.Context, req interfaces.RAGSearchRequest) (*interfaces.RAGAnswerResult, error) {
	hits, err := s.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		s.logger.Info().
			Str("owner_id", req.OwnerID).
			Msg("RAG answer: no matching chunks, returning insufficient-context answer")
		return &interfaces.RAGAnswerResult{
			Answer:  InsufficientContextAnswer,
			Sources: []interfaces.RAGSearchHit{},
			Model:   s.model,
		}, nil
	}

	userPrompt := buildUserPrompt(strings.TrimSpace(req.Query), buildContext(hits))
	answer, err := s.generator.GenerateAnswer(ctx, answerSystemInstruction, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	// The model can legally return nothing (safety stop, max tokens on
	// whitespace). Fall back to the fixed answer but keep the sources.
	if strings.TrimSpace(answer) == "" {
		answer = InsufficientContextAnswer
	}

	return &interfaces.RAGAnswerResult{
		Answer:  answer,
		Sources: hits,
		Model:   s.model,
	}, nil
}

// checkMaterialAccess verifies that every scoped material exists and belongs
// to the caller before any embedding work is spent.
func (s *Service) checkMaterialAccess(ownerID string, materialIDs []string) error {
	for _, id := range materialIDs {
		material, err := s.materials.GetMaterial(id)
		if err != nil {
			if errors.Is(err, interfaces.ErrMaterialNotFound) {
				return err
			}
			return fmt.Errorf("failed to load material %s: %w", id, err)
		}
		if material.OwnerID != ownerID {
			return fmt.Errorf("%w: %s", ErrMaterialForbidden, id)
		}
	}
	return nil
}

func (s *Service) clampTopK(topK int) int {
	if topK <= 0 {
		return s.defaultTopK
	}
	if topK > s.maxTopK {
		return s.maxTopK
	}
	return topK
}

func hitFromMatch(match interfaces.ChunkMatch) interfaces.RAGSearchHit {
	chunk := match.Chunk
	return interfaces.RAGSearchHit{
		ChunkID:    chunk.ID,
		MaterialID: chunk.MaterialID,
		SourceFile: chunk.SourceFile,
		ClassName:  chunk.ClassName,
		Page:       chunk.Page,
		Section:    chunk.Section,
		Text:       chunk.Text,
		Score:      match.Score,
		Metadata:   chunk.Metadata,
	}
}
