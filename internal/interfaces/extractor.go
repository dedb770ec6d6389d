package interfaces

// ExtractedText is the plain-text content pulled from an uploaded file
type ExtractedText struct {
	Text      string
	PageCount int // 0 when the format has no page concept
}

// TextExtractor converts uploaded file bytes into indexable plain text
type TextExtractor interface {
	// Extract pulls text from the file bytes. The MIME type and filename
	// together select the extraction strategy.
	Extract(data []byte, mimeType, filename string) (*ExtractedText, error)

	// Supports reports whether the extractor can handle the MIME type
	Supports(mimeType string) bool
}
