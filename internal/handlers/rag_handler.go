package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/services/llm"
	"github.com/ternarybob/studeo/internal/services/rag"
)

var validate = validator.New()

// ragQueryRequest is the shared body for /api/rag/search and /api/rag/answer
type ragQueryRequest struct {
	MaterialID string `json:"materialId"`
	Query      string `json:"query" validate:"required"`
	TopK       int    `json:"topK" validate:"gte=0"`
	ClassName  string `json:"className"`
}

// RAGHandler handles retrieval and answer requests
type RAGHandler struct {
	ragService interfaces.RAGService
	logger     arbor.ILogger
}

// NewRAGHandler creates a new RAG handler with dependencies
func NewRAGHandler(ragService interfaces.RAGService, logger arbor.ILogger) *RAGHandler {
	return &RAGHandler{
		ragService: ragService,
		logger:     logger,
	}
}

// SearchHandler handles POST /api/rag/search requests
func (h *RAGHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeQueryRequest(w, r)
	if !ok {
		return
	}

	hits, err := h.ragService.Search(r.Context(), h.toServiceRequest(ownerID, req))
	if err != nil {
		h.writeRAGError(w, "search", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"results": hits,
	})
}

// AnswerHandler handles POST /api/rag/answer requests
func (h *RAGHandler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeQueryRequest(w, r)
	if !ok {
		return
	}

	result, err := h.ragService.Answer(r.Context(), h.toServiceRequest(ownerID, req))
	if err != nil {
		h.writeRAGError(w, "answer", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"answer":  result.Answer,
		"sources": result.Sources,
		"model":   result.Model,
	})
}

func (h *RAGHandler) decodeQueryRequest(w http.ResponseWriter, r *http.Request) (*ragQueryRequest, bool) {
	var req ragQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Query is required")
		return nil, false
	}
	return &req, true
}

func (h *RAGHandler) toServiceRequest(ownerID string, req *ragQueryRequest) interfaces.RAGSearchRequest {
	serviceReq := interfaces.RAGSearchRequest{
		OwnerID:   ownerID,
		Query:     req.Query,
		TopK:      req.TopK,
		ClassName: req.ClassName,
	}
	if materialID := strings.TrimSpace(req.MaterialID); materialID != "" {
		serviceReq.MaterialIDs = []string{materialID}
	}
	return serviceReq
}

// writeRAGError maps service errors to HTTP status codes
func (h *RAGHandler) writeRAGError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		WriteError(w, http.StatusBadRequest, "Query is required")
	case errors.Is(err, interfaces.ErrMaterialNotFound):
		WriteError(w, http.StatusNotFound, "Material not found")
	case errors.Is(err, rag.ErrMaterialForbidden):
		WriteError(w, http.StatusForbidden, "You are not allowed to search this material")
	case errors.Is(err, llm.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, "The model service is busy, please try again shortly")
	default:
		h.logger.Error().Err(err).Str("operation", operation).Msg("RAG request failed")
		WriteError(w, http.StatusInternalServerError, "Failed to process request")
	}
}
