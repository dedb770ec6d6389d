package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - RAG (search and grounded answers)
	mux.HandleFunc("/api/rag/search", s.app.RAGHandler.SearchHandler)
	mux.HandleFunc("/api/rag/answer", s.app.RAGHandler.AnswerHandler)

	// API routes - Materials (upload, list, per-ID operations)
	mux.HandleFunc("/api/materials", s.handleMaterialsRoute)
	mux.HandleFunc("/api/materials/", s.handleMaterialRoutes)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleMaterialsRoute routes /api/materials requests (list and upload)
func (s *Server) handleMaterialsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.MaterialHandler.ListHandler, s.app.MaterialHandler.UploadHandler)
}

// handleMaterialRoutes routes /api/materials/{id} requests and subpaths
func (s *Server) handleMaterialRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/materials/{id}/reindex
	if strings.HasSuffix(path, "/reindex") {
		if !s.requirePost(w, r) {
			return
		}
		s.app.MaterialHandler.ReindexHandler(w, r)
		return
	}

	// GET /api/materials/{id}/status
	if strings.HasSuffix(path, "/status") {
		RouteByMethod(w, r, MethodRouter{"GET": s.app.MaterialHandler.StatusHandler})
		return
	}

	// GET/DELETE /api/materials/{id}
	RouteResourceItem(w, r, s.app.MaterialHandler.GetHandler, nil, s.app.MaterialHandler.DeleteHandler)
}

func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
