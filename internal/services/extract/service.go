// -----------------------------------------------------------------------
// Text Extraction Service - Pull indexable text from uploaded files
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/interfaces"
)

// Service implements the TextExtractor interface. Plain text and markdown
// pass through; PDFs go through pdfcpu content extraction.
type Service struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.TextExtractor = (*Service)(nil)

// NewService creates a new text extraction service
func NewService(logger arbor.ILogger) *Service {
	tempDir := filepath.Join(os.TempDir(), "studeo-extract")
	os.MkdirAll(tempDir, 0755)

	return &Service{
		logger:  logger,
		tempDir: tempDir,
	}
}

// Supports reports whether the extractor can handle the MIME type
func (s *Service) Supports(mimeType string) bool {
	switch normalizeMime(mimeType) {
	case "text/plain", "text/markdown", "application/pdf":
		return true
	}
	return false
}

// Extract pulls text from the file bytes. The MIME type is checked first;
// when absent the filename extension decides.
func (s *Service) Extract(data []byte, mimeType, filename string) (*interfaces.ExtractedText, error) {
	if len(data) == 0 {
		return &interfaces.ExtractedText{}, nil
	}

	switch resolveKind(mimeType, filename) {
	case "pdf":
		return s.extractPDF(data)
	case "text":
		return s.extractPlainText(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q for %s", mimeType, filename)
	}
}

func normalizeMime(mimeType string) string {
	// Strip parameters like "; charset=utf-8"
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func resolveKind(mimeType, filename string) string {
	switch normalizeMime(mimeType) {
	case "application/pdf":
		return "pdf"
	case "text/plain", "text/markdown":
		return "text"
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".txt", ".md", ".markdown":
		return "text"
	}

	return ""
}

func (s *Service) extractPlainText(data []byte) (*interfaces.ExtractedText, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file content is not valid UTF-8 text")
	}
	return &interfaces.ExtractedText{Text: string(data)}, nil
}

// extractPDF writes the bytes to a temp file and runs pdfcpu content
// extraction, concatenating page text in page order.
func (s *Service) extractPDF(data []byte) (*interfaces.ExtractedText, error) {
	runID := uuid.New().String()

	tempFile := filepath.Join(s.tempDir, fmt.Sprintf("extract_%s.pdf", runID))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(s.tempDir, fmt.Sprintf("pages_%s", runID))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// pdfcpu writes one Content_page_N file per page
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		if fullText.Len() > 0 {
			fullText.WriteString("\n\n")
		}
		fullText.WriteString(text)
	}

	s.logger.Debug().
		Int("page_count", pageCount).
		Int("text_length", fullText.Len()).
		Msg("Extracted PDF text")

	return &interfaces.ExtractedText{
		Text:      fullText.String(),
		PageCount: pageCount,
	}, nil
}
