package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
)

// NewGenerationService creates the answer-generation provider selected by
// llm.provider. Embeddings always come from a separately constructed Gemini
// service regardless of this choice.
func NewGenerationService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing generation service")

	switch cfg.LLM.Provider {
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)

	case common.LLMProviderGemini, "":
		return NewGeminiService(&cfg.Gemini, logger)

	default:
		return nil, fmt.Errorf("unsupported llm provider %q: must be 'gemini' or 'claude'", cfg.LLM.Provider)
	}
}
