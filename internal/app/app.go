package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/handlers"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/services/chunker"
	"github.com/ternarybob/studeo/internal/services/embeddings"
	"github.com/ternarybob/studeo/internal/services/extract"
	"github.com/ternarybob/studeo/internal/services/indexing"
	"github.com/ternarybob/studeo/internal/services/llm"
	"github.com/ternarybob/studeo/internal/services/rag"
	"github.com/ternarybob/studeo/internal/storage/badger"
)

// App holds all application components and dependencies. Clients are
// constructed once here and injected; no package-level cached state.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Model clients: Gemini always serves embeddings, the generator is
	// provider-selected (Gemini or Claude)
	EmbeddingClient *llm.GeminiService
	Generator       interfaces.LLMService

	// Core services
	Embedder        interfaces.EmbeddingService
	Chunker         *chunker.Chunker
	ExtractService  interfaces.TextExtractor
	IndexingService *indexing.Service
	RAGService      interfaces.RAGService

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	RAGHandler      *handlers.RAGHandler
	MaterialHandler *handlers.MaterialHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.initHandlers()

	if err := app.IndexingService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start indexing janitor: %w", err)
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.Provider)).
		Str("embed_model", cfg.Gemini.EmbedModel).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

func (a *App) initServices() error {
	// Embeddings are always Gemini regardless of the generation provider
	embeddingClient, err := llm.NewGeminiService(&a.Config.Gemini, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	a.EmbeddingClient = embeddingClient

	generator, err := llm.NewGenerationService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	a.Generator = generator

	a.Embedder = embeddings.NewService(
		embeddingClient,
		embeddingClient.EmbedModelName(),
		embeddingClient.EmbedDimension(),
		a.Config.RAG.EmbedBatchSize,
		a.Logger,
	)

	textChunker, err := chunker.New(chunker.Config{
		MaxChars:      a.Config.RAG.MaxChars,
		OverlapChars:  a.Config.RAG.OverlapChars,
		MinChunkChars: a.Config.RAG.MinChunkChars,
	})
	if err != nil {
		return fmt.Errorf("invalid chunker configuration: %w", err)
	}
	a.Chunker = textChunker

	a.ExtractService = extract.NewService(a.Logger)

	a.IndexingService = indexing.NewService(
		a.StorageManager,
		a.Embedder,
		a.Chunker,
		&a.Config.RAG,
		a.Logger,
	)

	a.RAGService = rag.NewService(
		a.StorageManager,
		a.Embedder,
		a.Generator,
		a.generationModelName(),
		&a.Config.RAG,
		a.Logger,
	)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Generator)
	a.RAGHandler = handlers.NewRAGHandler(a.RAGService, a.Logger)
	a.MaterialHandler = handlers.NewMaterialHandler(
		a.StorageManager,
		a.ExtractService,
		a.IndexingService,
		a.Logger,
	)
}

func (a *App) generationModelName() string {
	if a.Config.LLM.Provider == common.LLMProviderClaude {
		return a.Config.Claude.Model
	}
	return a.Config.Gemini.Model
}

// Close shuts down services in reverse dependency order
func (a *App) Close() error {
	if a.IndexingService != nil {
		a.IndexingService.Stop()
		a.Logger.Info().Msg("Indexing janitor stopped")
	}

	if a.Generator != nil {
		if err := a.Generator.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close generation client")
		}
	}
	if a.EmbeddingClient != nil {
		if err := a.EmbeddingClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close embedding client")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
