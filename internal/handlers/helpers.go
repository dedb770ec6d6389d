package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ternarybob/studeo/internal/interfaces"
)

// ownerHeader carries the authenticated user ID, applied by the upstream
// auth layer before requests reach this service.
const ownerHeader = "X-Owner-ID"

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// RequireOwner extracts the authenticated owner ID from the request.
// Returns the ID and true, or writes a 401 response and returns false.
func RequireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		WriteError(w, http.StatusUnauthorized, "Missing "+ownerHeader+" header")
		return "", false
	}
	return ownerID, true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// GetListOptions extracts limit/offset pagination from the query string.
// Limit defaults to 50 and is capped at 200.
func GetListOptions(r *http.Request) *interfaces.ListOptions {
	opts := &interfaces.ListOptions{Limit: 50}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			opts.Limit = limit
		}
	}
	if opts.Limit > 200 {
		opts.Limit = 200
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
			opts.Offset = offset
		}
	}

	return opts
}
