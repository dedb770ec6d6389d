package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Claude  ClaudeConfig  `toml:"claude"`
	LLM     LLMConfig     `toml:"llm"`
	RAG     RAGConfig     `toml:"rag"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration for embeddings and
// answer generation
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	EmbedModel     string  `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Embedding output dimensionality (default: 768)
	Model          string  `toml:"model"`           // Generation model (default: "gemini-3-flash-preview")
	Temperature    float32 `toml:"temperature"`     // Generation temperature (default: 0.2)
	MaxTokens      int     `toml:"max_tokens"`      // Max output tokens per answer (default: 1024)
	Timeout        string  `toml:"timeout"`         // Per-call timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between API calls (default: "4s" for free-tier 15 RPM)
}

// ClaudeConfig contains Anthropic Claude API configuration for the alternate
// generation provider. Embeddings always come from Gemini; Anthropic exposes
// no embedding API.
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Generation model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Max output tokens per answer (default: 1024)
	Temperature float32 `toml:"temperature"` // Generation temperature (default: 0.2)
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between API calls (default: "1s")
}

// LLMProvider identifies the answer-generation provider
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the answer-generation provider
type LLMConfig struct {
	Provider LLMProvider `toml:"provider"` // "gemini" or "claude" (default: "gemini")
}

// RAGConfig contains chunking, batching, and retrieval tunables
type RAGConfig struct {
	MaxChars           int    `toml:"max_chars"`            // Chunk size ceiling in characters (default: 800)
	OverlapChars       int    `toml:"overlap_chars"`        // Trailing overlap carried into the next chunk (default: 120)
	MinChunkChars      int    `toml:"min_chunk_chars"`      // Buffered chunks below this are dropped (default: 200)
	EmbedBatchSize     int    `toml:"embed_batch_size"`     // Texts per embedding API call (default: 24)
	TopK               int    `toml:"top_k"`                // Default similarity search result count (default: 6)
	MaxTopK            int    `toml:"max_top_k"`            // Hard cap on caller-supplied topK (default: 20)
	NumCandidates      int    `toml:"num_candidates"`       // Candidates scored before final ranking (default: 120)
	IndexingStuckAfter string `toml:"indexing_stuck_after"` // Materials stuck in "indexing" longer than this are failed by the janitor (default: "30m")
	JanitorSchedule    string `toml:"janitor_schedule"`     // Cron schedule for the stuck-indexing sweep (default: "@every 5m")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in studeo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (no fallback)
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Model:          "gemini-3-flash-preview",
			Temperature:    0.2,
			MaxTokens:      1024,
			Timeout:        "2m",
			RateLimit:      "4s", // Free tier: 15 RPM
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Temperature: 0.2,
			Timeout:     "2m",
			RateLimit:   "1s",
		},
		LLM: LLMConfig{
			Provider: LLMProviderGemini,
		},
		RAG: RAGConfig{
			MaxChars:           800,
			OverlapChars:       120,
			MinChunkChars:      200,
			EmbedBatchSize:     24,
			TopK:               6,
			MaxTopK:            20,
			NumCandidates:      120,
			IndexingStuckAfter: "30m",
			JanitorSchedule:    "@every 5m",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier files; environment variables
// override all files. CLI flags are applied separately via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("STUDEO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STUDEO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("STUDEO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("STUDEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("STUDEO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("STUDEO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini configuration (GEMINI_* names shared with the web client tooling)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("STUDEO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_EMBEDDING_MODEL"); model != "" {
		config.Gemini.EmbedModel = model
	}
	if dim := os.Getenv("GEMINI_EMBEDDING_DIM"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil && d > 0 {
			config.Gemini.EmbedDimension = d
		}
	}
	if model := os.Getenv("GEMINI_RAG_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if temp := os.Getenv("GEMINI_RAG_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}
	if maxTokens := os.Getenv("GEMINI_RAG_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil && mt > 0 {
			config.Gemini.MaxTokens = mt
		}
	}

	// Claude configuration
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	// Provider selection
	if provider := os.Getenv("STUDEO_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}

	// RAG tunables
	if batch := os.Getenv("RAG_EMBED_BATCH_SIZE"); batch != "" {
		if b, err := strconv.Atoi(batch); err == nil && b > 0 {
			config.RAG.EmbedBatchSize = b
		}
	}
	if topK := os.Getenv("STUDEO_RAG_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil && k > 0 {
			config.RAG.TopK = k
		}
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks cross-field constraints that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.RAG.MaxChars <= 0 {
		return fmt.Errorf("rag.max_chars must be positive, got %d", c.RAG.MaxChars)
	}
	if c.RAG.OverlapChars < 0 || c.RAG.OverlapChars >= c.RAG.MaxChars {
		return fmt.Errorf("rag.overlap_chars (%d) must be in [0, rag.max_chars) (max_chars=%d)", c.RAG.OverlapChars, c.RAG.MaxChars)
	}
	if c.RAG.NumCandidates < c.RAG.TopK {
		return fmt.Errorf("rag.num_candidates (%d) must be >= rag.top_k (%d)", c.RAG.NumCandidates, c.RAG.TopK)
	}
	if c.Gemini.EmbedDimension <= 0 {
		return fmt.Errorf("gemini.embed_dimension must be positive, got %d", c.Gemini.EmbedDimension)
	}
	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("llm.provider must be 'gemini' or 'claude', got %q", c.LLM.Provider)
	}
	if _, err := time.ParseDuration(c.RAG.IndexingStuckAfter); err != nil {
		return fmt.Errorf("invalid rag.indexing_stuck_after duration %q: %w", c.RAG.IndexingStuckAfter, err)
	}
	return nil
}

// GeminiTimeout returns the parsed per-call timeout, falling back to 2m.
func (c *GeminiConfig) GeminiTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// ClaudeTimeout returns the parsed per-call timeout, falling back to 2m.
func (c *ClaudeConfig) ClaudeTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// StuckAfter returns the parsed indexing_stuck_after duration, falling back
// to 30m.
func (c *RAGConfig) StuckAfter() time.Duration {
	if d, err := time.ParseDuration(c.IndexingStuckAfter); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}
