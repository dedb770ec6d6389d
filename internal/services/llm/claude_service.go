package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/studeo/internal/common"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API. It serves answer generation only: Anthropic exposes no
// embedding endpoint, so EmbedTexts always fails and embeddings must come
// from the Gemini service.
type ClaudeService struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClaudeService creates a Claude service instance. The API key must be
// present in config (populated from ANTHROPIC_API_KEY or claude.api_key).
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or claude.api_key in config", ErrAPIKeyMissing)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &ClaudeService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: newLimiter(config.RateLimit, time.Second),
		timeout: config.ClaudeTimeout(),
	}

	logger.Info().
		Str("model", config.Model).
		Int("max_tokens", config.MaxTokens).
		Dur("timeout", service.timeout).
		Msg("Claude LLM service initialized")

	return service, nil
}

// EmbedTexts always fails: route embedding work to the Gemini service
func (s *ClaudeService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrEmbeddingsUnsupported
}

// GenerateAnswer produces a completion for the given prompts using the
// configured Claude model.
func (s *ClaudeService) GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", ErrEmptyPrompt
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	startTime := time.Now()

	var resp *anthropic.Message
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return "", err
		}

		resp, apiErr = s.client.Messages.New(timeoutCtx, params)
		if apiErr == nil {
			break
		}

		if !IsRateLimitError(apiErr) || attempt == retryConfig.MaxRetries {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		if IsRateLimitError(apiErr) {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, apiErr)
		}
		return "", fmt.Errorf("answer generation failed: %w", apiErr)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	// An empty completion is not an error: the caller decides how to
	// present a model that produced no usable content
	answer := strings.TrimSpace(response.String())

	s.logger.Debug().
		Int("response_length", len(answer)).
		Dur("duration", time.Since(startTime)).
		Msg("Answer generation completed")

	return answer, nil
}

// HealthCheck verifies the Claude API is reachable with a minimal probe
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	response, err := s.GenerateAnswer(probeCtx, "", "ping")
	if err != nil {
		return fmt.Errorf("Claude probe failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("Claude probe returned empty response")
	}
	return nil
}

// GenerationModel returns the configured generation model
func (s *ClaudeService) GenerationModel() string {
	return s.config.Model
}

// Close releases provider resources. The Anthropic client requires no
// explicit cleanup.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude LLM service")
	return nil
}
