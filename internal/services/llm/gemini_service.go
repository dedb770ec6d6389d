package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/studeo/internal/common"
)

// embeddingTaskType matches the indexing pipeline's retrieval use case.
// Query and chunk vectors must share a task type to be comparable.
const embeddingTaskType = "SEMANTIC_SIMILARITY"

// GeminiService implements the LLMService interface using the Google Gemini
// API. It is the only provider that serves embeddings; answer generation can
// be routed here or to Claude via the factory.
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiService creates a Gemini service instance. The API key must be
// present in config (populated from GEMINI_API_KEY or gemini.api_key).
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or gemini.api_key in config", ErrAPIKeyMissing)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: newLimiter(config.RateLimit, 4*time.Second),
		timeout: config.GeminiTimeout(),
	}

	logger.Info().
		Str("embed_model", config.EmbedModel).
		Str("model", config.Model).
		Int("embed_dimension", config.EmbedDimension).
		Dur("timeout", service.timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// EmbedTexts generates one embedding vector per text via a single batch
// call. Callers are expected to keep batches within provider limits; the
// embeddings service handles batch sizing.
func (s *GeminiService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: embedding input %d is blank", ErrEmptyPrompt, i)
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	outputDim := int32(s.config.EmbedDimension)
	embedConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
		TaskType:             embeddingTaskType,
	}

	startTime := time.Now()

	var result *genai.EmbedContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return nil, err
		}

		result, apiErr = s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, contents, embedConfig)
		if apiErr == nil {
			break
		}

		if !IsRateLimitError(apiErr) || attempt == retryConfig.MaxRetries {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		s.logger.Warn().
			Int("attempt", attempt+1).
			Int("batch_size", len(texts)).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini embedding call")

		select {
		case <-timeoutCtx.Done():
			return nil, timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		if IsRateLimitError(apiErr) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, apiErr)
		}
		return nil, fmt.Errorf("embedding generation failed: %w", apiErr)
	}

	vectors, err := normalizeEmbeddings(result, len(texts), s.config.EmbedDimension)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("batch_size", len(texts)).
		Int("embedding_dim", s.config.EmbedDimension).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding batch completed")

	return vectors, nil
}

// normalizeEmbeddings validates a provider response shape and extracts one
// vector per requested text, in request order. Every malformed shape gets an
// explicit error rather than a partial result.
func normalizeEmbeddings(result *genai.EmbedContentResponse, want, dim int) ([][]float32, error) {
	if result == nil {
		return nil, fmt.Errorf("llm: nil embedding response")
	}
	if len(result.Embeddings) != want {
		return nil, &CountMismatchError{Want: want, Got: len(result.Embeddings)}
	}

	vectors := make([][]float32, 0, want)
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("llm: embedding %d is empty", i)
		}
		if dim > 0 && len(embedding.Values) != dim {
			return nil, fmt.Errorf("llm: embedding %d dimension mismatch: expected %d, got %d", i, dim, len(embedding.Values))
		}
		vectors = append(vectors, embedding.Values)
	}
	return vectors, nil
}

// GenerateAnswer produces a completion for the given prompts using the
// configured generation model.
func (s *GeminiService) GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", ErrEmptyPrompt
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.config.Temperature),
		MaxOutputTokens: int32(s.config.MaxTokens),
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	startTime := time.Now()

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		if err := s.limiter.Wait(timeoutCtx); err != nil {
			return "", err
		}

		resp, apiErr = s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, genConfig)
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
			Msg("Retrying Gemini generation call")

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

	// An empty completion is not an error: the caller decides how to
	// present a model that produced no usable content
	answer := extractAnswerText(resp)
	if answer == "" {
		s.logger.Warn().Msg("Model returned no usable content")
	}

	s.logger.Debug().
		Int("response_length", len(answer)).
		Dur("duration", time.Since(startTime)).
		Msg("Answer generation completed")

	return answer, nil
}

// extractAnswerText reads the generated text from the first candidate only;
// additional candidates are ignored.
func extractAnswerText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var response strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			response.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(response.String())
}

// HealthCheck verifies the Gemini API is reachable and authenticated by
// running a lightweight embedding probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	vectors, err := s.EmbedTexts(probeCtx, []string{"health check probe"})
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	return nil
}

// EmbedModelName returns the configured embedding model
func (s *GeminiService) EmbedModelName() string {
	return s.config.EmbedModel
}

// EmbedDimension returns the configured embedding dimensionality
func (s *GeminiService) EmbedDimension() int {
	return s.config.EmbedDimension
}

// GenerationModel returns the configured generation model
func (s *GeminiService) GenerationModel() string {
	return s.config.Model
}

// Close releases the client reference. The genai client holds no resources
// that require explicit shutdown.
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}
