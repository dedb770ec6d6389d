// Package chunker splits normalized material text into overlapping chunks
// sized for embedding. Paragraphs are coalesced greedily up to the size
// ceiling; oversized paragraphs are window-split; a trailing overlap from
// each chunk is prefixed onto the next so context survives chunk boundaries.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultMaxChars      = 800
	DefaultOverlapChars  = 120
	DefaultMinChunkChars = 200
)

// Config controls chunk sizing. All counts are in runes.
type Config struct {
	MaxChars      int // Chunk size ceiling
	OverlapChars  int // Trailing overlap carried into the next chunk
	MinChunkChars int // Coalesced chunks below this are dropped
}

// DefaultConfig returns the production chunking parameters
func DefaultConfig() Config {
	return Config{
		MaxChars:      DefaultMaxChars,
		OverlapChars:  DefaultOverlapChars,
		MinChunkChars: DefaultMinChunkChars,
	}
}

// Validate checks the configuration is internally consistent
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("max chars must be positive, got %d", c.MaxChars)
	}
	if c.OverlapChars < 0 || c.OverlapChars >= c.MaxChars {
		return fmt.Errorf("overlap chars (%d) must be in [0, max chars) (max chars=%d)", c.OverlapChars, c.MaxChars)
	}
	if c.MinChunkChars < 0 {
		return fmt.Errorf("min chunk chars must be non-negative, got %d", c.MinChunkChars)
	}
	return nil
}

// Chunker splits text using a fixed configuration
type Chunker struct {
	cfg Config
}

// New creates a Chunker after validating the configuration
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}
	return &Chunker{cfg: cfg}, nil
}

var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	excessNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// normalize canonicalizes line endings, collapses runs of 3+ newlines to a
// single blank line, and trims surrounding whitespace.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Split chunks the text. Empty or whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	var paragraphs []string
	for _, para := range paragraphSplitRe.Split(normalized, -1) {
		if trimmed := strings.TrimSpace(para); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []string
	var buffer string

	// Coalesced buffers below the minimum are dropped; window-split slices
	// of oversized paragraphs are kept regardless so no long paragraph
	// loses its tail.
	flush := func() {
		trimmed := strings.TrimSpace(buffer)
		if runeLen(trimmed) >= c.cfg.MinChunkChars {
			chunks = append(chunks, trimmed)
		}
		buffer = ""
	}

	for _, paragraph := range paragraphs {
		if runeLen(paragraph) > c.cfg.MaxChars {
			if buffer != "" {
				flush()
			}
			chunks = append(chunks, c.splitLongParagraph(paragraph)...)
			continue
		}

		if buffer == "" {
			buffer = paragraph
			continue
		}

		// +2 accounts for the "\n\n" joiner
		if runeLen(buffer)+runeLen(paragraph)+2 <= c.cfg.MaxChars {
			buffer = buffer + "\n\n" + paragraph
		} else {
			flush()
			buffer = paragraph
		}
	}

	if buffer != "" {
		flush()
	}

	return c.applyOverlap(chunks)
}

// splitLongParagraph window-splits a paragraph that exceeds the ceiling,
// stepping by MaxChars-OverlapChars so consecutive windows share content.
func (c *Chunker) splitLongParagraph(paragraph string) []string {
	runes := []rune(paragraph)
	if len(runes) <= c.cfg.MaxChars {
		return []string{paragraph}
	}

	step := c.cfg.MaxChars - c.cfg.OverlapChars
	if step < 1 {
		step = 1
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, strings.TrimSpace(string(runes[start:end])))
	}
	return out
}

// applyOverlap prefixes each chunk with the tail of its (already overlapped)
// predecessor. When the combined chunk exceeds the ceiling it is truncated
// from the front, keeping the trailing MaxChars runes: the current chunk's
// own content wins over the carried overlap.
func (c *Chunker) applyOverlap(chunks []string) []string {
	if c.cfg.OverlapChars == 0 || len(chunks) == 0 {
		return chunks
	}

	result := make([]string, 0, len(chunks))
	for _, current := range chunks {
		if len(result) == 0 {
			result = append(result, current)
			continue
		}

		overlap := tail(result[len(result)-1], c.cfg.OverlapChars)
		if overlap == "" {
			result = append(result, current)
			continue
		}

		combined := strings.TrimSpace(overlap + "\n\n" + current)
		combinedRunes := []rune(combined)
		if len(combinedRunes) <= c.cfg.MaxChars {
			result = append(result, combined)
		} else {
			result = append(result, string(combinedRunes[len(combinedRunes)-c.cfg.MaxChars:]))
		}
	}
	return result
}

func runeLen(s string) int {
	return len([]rune(s))
}

// tail returns the last n runes of s
func tail(s string, n int) string {
	runes := []rune(s)
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}
