package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/services/llm"
	"github.com/ternarybob/studeo/internal/services/rag"
)

// mockRAGService implements interfaces.RAGService for testing
type mockRAGService struct {
	searchFunc func(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error)
	answerFunc func(ctx context.Context, req interfaces.RAGSearchRequest) (*interfaces.RAGAnswerResult, error)
}

func (m *mockRAGService) Search(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockRAGService) Answer(ctx context.Context, req interfaces.RAGSearchRequest) (*interfaces.RAGAnswerResult, error) {
	if m.answerFunc != nil {
		return m.answerFunc(ctx, req)
	}
	return &interfaces.RAGAnswerResult{}, nil
}

func executeRAGRequest(handler http.HandlerFunc, method, url, ownerID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ownerID != "" {
		req.Header.Set("X-Owner-ID", ownerID)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRAGSearchHandler_Success(t *testing.T) {
	var captured interfaces.RAGSearchRequest
	mockService := &mockRAGService{
		searchFunc: func(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error) {
			captured = req
			return []interfaces.RAGSearchHit{
				{ChunkID: "chk_1", MaterialID: "mat_1", Text: "Chlorophyll absorbs light.", Score: 0.92},
			}, nil
		},
	}

	handler := NewRAGHandler(mockService, common.GetLogger())
	body := `{"query":"What absorbs light?","materialId":"mat_1","topK":4,"className":"Biology"}`
	rec := executeRAGRequest(handler.SearchHandler, "POST", "/api/rag/search", "user-1", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.OwnerID != "user-1" {
		t.Errorf("Expected owner from header, got %q", captured.OwnerID)
	}
	if len(captured.MaterialIDs) != 1 || captured.MaterialIDs[0] != "mat_1" {
		t.Errorf("Expected materialId forwarded, got %v", captured.MaterialIDs)
	}
	if captured.TopK != 4 || captured.ClassName != "Biology" {
		t.Errorf("Unexpected request mapping: %+v", captured)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if response["query"] != "What absorbs light?" {
		t.Errorf("Expected query echoed, got %v", response["query"])
	}
	results, ok := response["results"].([]interface{})
	if !ok || len(results) != 1 {
		t.Fatalf("Expected 1 result, got %v", response["results"])
	}
	hit, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected result object, got %v", results[0])
	}
	if hit["id"] != "chk_1" {
		t.Errorf("Expected id field, got keys %v", hit)
	}
	if hit["material"] != "mat_1" {
		t.Errorf("Expected material field, got keys %v", hit)
	}
	if hit["score"] != 0.92 {
		t.Errorf("Expected score 0.92, got %v", hit["score"])
	}
}

func TestRAGSearchHandler_RequiresOwner(t *testing.T) {
	handler := NewRAGHandler(&mockRAGService{}, common.GetLogger())
	rec := executeRAGRequest(handler.SearchHandler, "POST", "/api/rag/search", "", `{"query":"q"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRAGSearchHandler_RejectsGet(t *testing.T) {
	handler := NewRAGHandler(&mockRAGService{}, common.GetLogger())
	rec := executeRAGRequest(handler.SearchHandler, "GET", "/api/rag/search", "user-1", "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestRAGSearchHandler_EmptyQuery(t *testing.T) {
	mockService := &mockRAGService{
		searchFunc: func(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error) {
			return nil, rag.ErrEmptyQuery
		},
	}
	handler := NewRAGHandler(mockService, common.GetLogger())

	// Missing query fails request validation
	rec := executeRAGRequest(handler.SearchHandler, "POST", "/api/rag/search", "user-1", `{"topK":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", rec.Code)
	}

	// Whitespace query passes validation but the service rejects it
	rec = executeRAGRequest(handler.SearchHandler, "POST", "/api/rag/search", "user-1", `{"query":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank query, got %d", rec.Code)
	}
}

func TestRAGSearchHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not found", fmt.Errorf("wrapped: %w", interfaces.ErrMaterialNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("wrapped: %w", rag.ErrMaterialForbidden), http.StatusForbidden},
		{"rate limited", fmt.Errorf("wrapped: %w", llm.ErrRateLimited), http.StatusTooManyRequests},
		{"generic failure", fmt.Errorf("provider exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockRAGService{
				searchFunc: func(ctx context.Context, req interfaces.RAGSearchRequest) ([]interfaces.RAGSearchHit, error) {
					return nil, tt.serviceErr
				},
			}
			handler := NewRAGHandler(mockService, common.GetLogger())
			rec := executeRAGRequest(handler.SearchHandler, "POST", "/api/rag/search", "user-1", `{"query":"q"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRAGAnswerHandler_Success(t *testing.T) {
	mockService := &mockRAGService{
		answerFunc: func(ctx context.Context, req interfaces.RAGSearchRequest) (*interfaces.RAGAnswerResult, error) {
			return &interfaces.RAGAnswerResult{
				Answer: "Chlorophyll absorbs light.",
				Sources: []interfaces.RAGSearchHit{
					{ChunkID: "chk_1", MaterialID: "mat_1", Text: "Chlorophyll absorbs light.", Score: 0.92},
				},
				Model: "gemini-3-flash-preview",
			}, nil
		},
	}

	handler := NewRAGHandler(mockService, common.GetLogger())
	rec := executeRAGRequest(handler.AnswerHandler, "POST", "/api/rag/answer", "user-1", `{"query":"What absorbs light?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if response["answer"] != "Chlorophyll absorbs light." {
		t.Errorf("Unexpected answer: %v", response["answer"])
	}
	if response["model"] != "gemini-3-flash-preview" {
		t.Errorf("Unexpected model: %v", response["model"])
	}
	sources, ok := response["sources"].([]interface{})
	if !ok || len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %v", response["sources"])
	}
	source, ok := sources[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected source object, got %v", sources[0])
	}
	if source["id"] != "chk_1" || source["material"] != "mat_1" {
		t.Errorf("Unexpected source fields: %v", source)
	}
}

func TestRAGAnswerHandler_RateLimited(t *testing.T) {
	mockService := &mockRAGService{
		answerFunc: func(ctx context.Context, req interfaces.RAGSearchRequest) (*interfaces.RAGAnswerResult, error) {
			return nil, fmt.Errorf("generation failed: %w", llm.ErrRateLimited)
		},
	}

	handler := NewRAGHandler(mockService, common.GetLogger())
	rec := executeRAGRequest(handler.AnswerHandler, "POST", "/api/rag/answer", "user-1", `{"query":"q"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
}
