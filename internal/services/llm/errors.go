package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrAPIKeyMissing indicates the provider API key is not configured
	ErrAPIKeyMissing = errors.New("llm: API key is not configured")

	// ErrEmptyPrompt indicates a blank prompt or embedding input
	ErrEmptyPrompt = errors.New("llm: prompt is empty")

	// ErrRateLimited indicates the provider quota stayed exhausted through
	// all retry attempts
	ErrRateLimited = errors.New("llm: provider rate limit exhausted")

	// ErrEmbeddingsUnsupported indicates the provider has no embedding API
	ErrEmbeddingsUnsupported = errors.New("llm: provider does not support embeddings")
)

// CountMismatchError reports an embedding response whose vector count does
// not match the number of requested texts.
type CountMismatchError struct {
	Want int
	Got  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("llm: embedding count mismatch: requested %d, received %d", e.Want, e.Got)
}
