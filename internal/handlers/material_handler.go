package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/models"
)

// maxUploadBytes bounds multipart uploads (in-memory text extraction)
const maxUploadBytes = 20 << 20 // 20 MB

// materialSummary is the list/detail response shape; Content is omitted from
// lists to keep payloads small.
type materialSummary struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	ClassName    string    `json:"class_name"`
	RagStatus    string    `json:"rag_status"`
	RagUpdatedAt time.Time `json:"rag_updated_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ContentChars int       `json:"content_chars"`
}

// uploadRequest is the JSON alternative to a multipart upload for materials
// that are already plain text.
type uploadRequest struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
	Content   string `json:"content" validate:"required"`
}

// MaterialHandler handles learning material CRUD and indexing triggers
type MaterialHandler struct {
	materials interfaces.MaterialStorage
	chunks    interfaces.ChunkStorage
	extractor interfaces.TextExtractor
	indexer   interfaces.IndexingService
	logger    arbor.ILogger
}

// NewMaterialHandler creates a new material handler with dependencies
func NewMaterialHandler(
	storage interfaces.StorageManager,
	extractor interfaces.TextExtractor,
	indexer interfaces.IndexingService,
	logger arbor.ILogger,
) *MaterialHandler {
	return &MaterialHandler{
		materials: storage.MaterialStorage(),
		chunks:    storage.ChunkStorage(),
		extractor: extractor,
		indexer:   indexer,
		logger:    logger,
	}
}

// UploadHandler handles POST /api/materials. Accepts multipart/form-data
// with a "file" part (plus optional "className"), or a JSON body with
// pre-extracted text. Indexing is dispatched in the background; the response
// returns immediately with status 202.
func (h *MaterialHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	var material *models.Material
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		material, err = h.materialFromUpload(r, ownerID)
	} else {
		material, err = h.materialFromJSON(r, ownerID)
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	material.RagStatus = models.RagStatusIndexing
	if err := h.materials.SaveMaterial(material); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save material")
		WriteError(w, http.StatusInternalServerError, "Failed to save material")
		return
	}

	h.indexer.IndexMaterialInBackground(material.ID)

	h.logger.Info().
		Str("material_id", material.ID).
		Str("owner_id", ownerID).
		Str("file", material.OriginalName).
		Msg("Material uploaded, indexing dispatched")

	WriteJSON(w, http.StatusAccepted, toSummary(material))
}

func (h *MaterialHandler) materialFromUpload(r *http.Request, ownerID string) (*models.Material, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("invalid multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file part is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}

	mimeType := header.Header.Get("Content-Type")
	extracted, err := h.extractor.Extract(data, mimeType, header.Filename)
	if err != nil {
		return nil, err
	}

	return &models.Material{
		OwnerID:      ownerID,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		ClassName:    strings.TrimSpace(r.FormValue("className")),
		Content:      extracted.Text,
	}, nil
}

func (h *MaterialHandler) materialFromJSON(r *http.Request, ownerID string) (*models.Material, error) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if err := validate.Struct(&req); err != nil {
		return nil, errors.New("content is required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "untitled.txt"
	}

	return &models.Material{
		OwnerID:      ownerID,
		OriginalName: name,
		MimeType:     "text/plain",
		ClassName:    strings.TrimSpace(req.ClassName),
		Content:      req.Content,
	}, nil
}

// ListHandler handles GET /api/materials requests with optional className,
// limit, and offset query parameters
func (h *MaterialHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	opts := GetListOptions(r)
	className := strings.TrimSpace(r.URL.Query().Get("className"))

	var materials []*models.Material
	var err error
	if className != "" {
		materials, err = h.materials.ListMaterialsByClass(ownerID, className, opts)
	} else {
		materials, err = h.materials.ListMaterials(ownerID, opts)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list materials")
		WriteError(w, http.StatusInternalServerError, "Failed to list materials")
		return
	}

	summaries := make([]materialSummary, 0, len(materials))
	for _, material := range materials {
		summaries = append(summaries, toSummary(material))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"materials": summaries,
		"count":     len(summaries),
	})
}

// GetHandler handles GET /api/materials/{id} requests, returning the full
// material including its extracted content
func (h *MaterialHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	material, ok := h.loadOwned(w, r, ownerID)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, material)
}

// StatusHandler handles GET /api/materials/{id}/status requests for polling
// indexing progress
func (h *MaterialHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	material, ok := h.loadOwned(w, r, ownerID)
	if !ok {
		return
	}

	chunkCount, err := h.chunks.CountByMaterial(material.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("material_id", material.ID).Msg("Failed to count chunks")
		WriteError(w, http.StatusInternalServerError, "Failed to read indexing status")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":             material.ID,
		"rag_status":     material.RagStatus,
		"rag_updated_at": material.RagUpdatedAt,
		"chunk_count":    chunkCount,
	})
}

// ReindexHandler handles POST /api/materials/{id}/reindex requests
func (h *MaterialHandler) ReindexHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	material, ok := h.loadOwned(w, r, ownerID)
	if !ok {
		return
	}

	h.indexer.IndexMaterialInBackground(material.ID)

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"id":         material.ID,
		"rag_status": string(models.RagStatusIndexing),
	})
}

// DeleteHandler handles DELETE /api/materials/{id} requests. Chunks are
// deleted before the material record so a failure can never orphan chunks
// behind a missing parent.
func (h *MaterialHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := RequireOwner(w, r)
	if !ok {
		return
	}

	material, ok := h.loadOwned(w, r, ownerID)
	if !ok {
		return
	}

	if err := h.chunks.DeleteByMaterial(material.ID); err != nil {
		h.logger.Error().Err(err).Str("material_id", material.ID).Msg("Failed to delete chunks")
		WriteError(w, http.StatusInternalServerError, "Failed to delete material")
		return
	}
	if err := h.materials.DeleteMaterial(material.ID); err != nil {
		h.logger.Error().Err(err).Str("material_id", material.ID).Msg("Failed to delete material")
		WriteError(w, http.StatusInternalServerError, "Failed to delete material")
		return
	}

	h.logger.Info().
		Str("material_id", material.ID).
		Str("owner_id", ownerID).
		Msg("Material and chunks deleted")

	WriteSuccess(w, "Material deleted")
}

// loadOwned resolves the {id} path segment, loads the material, and enforces
// ownership. Writes 404/403 and returns false on failure.
func (h *MaterialHandler) loadOwned(w http.ResponseWriter, r *http.Request, ownerID string) (*models.Material, bool) {
	id := materialIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Material ID is required")
		return nil, false
	}

	material, err := h.materials.GetMaterial(id)
	if err != nil {
		if errors.Is(err, interfaces.ErrMaterialNotFound) {
			WriteError(w, http.StatusNotFound, "Material not found")
		} else {
			h.logger.Error().Err(err).Str("material_id", id).Msg("Failed to load material")
			WriteError(w, http.StatusInternalServerError, "Failed to load material")
		}
		return nil, false
	}
	if material.OwnerID != ownerID {
		WriteError(w, http.StatusForbidden, "You are not allowed to access this material")
		return nil, false
	}
	return material, true
}

// materialIDFromPath extracts {id} from /api/materials/{id}[/suffix]
func materialIDFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/materials/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func toSummary(material *models.Material) materialSummary {
	return materialSummary{
		ID:           material.ID,
		OriginalName: material.OriginalName,
		MimeType:     material.MimeType,
		ClassName:    material.ClassName,
		RagStatus:    string(material.RagStatus),
		RagUpdatedAt: material.RagUpdatedAt,
		CreatedAt:    material.CreatedAt,
		UpdatedAt:    material.UpdatedAt,
		ContentChars: len(material.Content),
	}
}
