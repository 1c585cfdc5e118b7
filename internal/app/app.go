package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/handlers"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/services/chat"
	"github.com/luminahr/knowledge/internal/services/documents"
	"github.com/luminahr/knowledge/internal/services/embeddings"
	"github.com/luminahr/knowledge/internal/services/extract"
	"github.com/luminahr/knowledge/internal/services/llm"
	"github.com/luminahr/knowledge/internal/services/retrieval"
	"github.com/luminahr/knowledge/internal/services/vectorindex"
	"github.com/luminahr/knowledge/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Pipeline services
	EmbeddingService interfaces.EmbeddingService
	VectorIndex      interfaces.VectorIndex
	IngestService    interfaces.IngestService
	RetrievalService interfaces.RetrievalService
	LLMService       interfaces.LLMService
	ChatService      interfaces.ChatService
	Reconciler       *documents.Reconciler

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHandlers()

	if err := app.Reconciler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start reconciler: %w", err)
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

func (a *App) initServices() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EmbeddingService = embeddings.NewService(&a.Config.Embedding, a.Logger)
	a.VectorIndex = vectorindex.NewService(&a.Config.Qdrant, a.EmbeddingService.Dimension(), a.Logger)

	extractor := extract.NewExtractor(a.Logger)
	a.IngestService = documents.NewService(
		extractor,
		a.EmbeddingService,
		a.VectorIndex,
		storageManager.DocumentStorage(),
		&a.Config.Chunking,
		a.Logger,
	)

	a.RetrievalService = retrieval.NewService(a.EmbeddingService, a.VectorIndex, &a.Config.Retrieval, a.Logger)

	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	a.ChatService = chat.NewService(
		a.RetrievalService,
		a.LLMService,
		storageManager.ChatStorage(),
		&a.Config.Chat,
		a.Logger,
	)

	a.Reconciler = documents.NewReconciler(
		a.VectorIndex,
		storageManager.DocumentStorage(),
		&a.Config.Reconciler,
		a.Logger,
	)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.DocumentHandler = handlers.NewDocumentHandler(a.IngestService, a.Logger)
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.Logger)
}

// Close releases all application resources in reverse dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Reconciler != nil {
		a.Reconciler.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	return nil
}
