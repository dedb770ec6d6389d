package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
)

type APIHandler struct {
	generator interfaces.LLMService
	logger    arbor.ILogger
}

func NewAPIHandler(generator interfaces.LLMService) *APIHandler {
	return &APIHandler{
		generator: generator,
		logger:    common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status. With ?deep=true the generation
// provider is probed as well.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if r.URL.Query().Get("deep") == "true" && h.generator != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if err := h.generator.HealthCheck(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Deep health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"llm":    err.Error(),
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
