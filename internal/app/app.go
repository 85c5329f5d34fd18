package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/handlers"
	"github.com/slidecraft/slidecraft/internal/interfaces"
	"github.com/slidecraft/slidecraft/internal/services/acquire"
	"github.com/slidecraft/slidecraft/internal/services/generator"
	"github.com/slidecraft/slidecraft/internal/services/images"
	"github.com/slidecraft/slidecraft/internal/services/llm"
	"github.com/slidecraft/slidecraft/internal/services/maintenance"
	"github.com/slidecraft/slidecraft/internal/services/outline"
	"github.com/slidecraft/slidecraft/internal/services/policy"
	"github.com/slidecraft/slidecraft/internal/services/presentations"
	"github.com/slidecraft/slidecraft/internal/services/render"
	"github.com/slidecraft/slidecraft/internal/storage/badger"
	"github.com/slidecraft/slidecraft/internal/storage/files"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	StorageManager interfaces.StorageManager
	ImageStore     interfaces.ImageStore
	DeckStore      interfaces.DeckStore
	UploadStore    interfaces.UploadStore

	// Pipeline services
	PolicyGate          interfaces.PolicyGate
	WebScraper          interfaces.WebAcquirer
	WikipediaService    interfaces.EncyclopedicAcquirer
	UploadExtractor     interfaces.UploadExtractor
	Aggregator          interfaces.Aggregator
	LLMService          interfaces.LLMService
	OutlineService      interfaces.OutlineService
	ImageResolver       interfaces.ImageResolver
	Renderer            interfaces.DeckRenderer
	GeneratorService    interfaces.GeneratorService
	PresentationService interfaces.PresentationService
	Sweeper             *maintenance.Sweeper

	// HTTP handlers
	APIHandler          *handlers.APIHandler
	GenerateHandler     *handlers.GenerateHandler
	PresentationHandler *handlers.PresentationHandler
	ImageHandler        *handlers.ImageHandler
	UploadHandler       *handlers.UploadHandler
	RobotsHandler       *handlers.RobotsHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.initHandlers()

	if cfg.Maintenance.Enabled {
		if err := app.Sweeper.Start(); err != nil {
			return nil, fmt.Errorf("failed to start maintenance sweeper: %w", err)
		}
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	a.ImageStore, err = files.NewImageStore(a.Config.Storage.Filesystem.Images, a.Logger)
	if err != nil {
		return err
	}
	a.DeckStore, err = files.NewDeckStore(a.Config.Storage.Filesystem.Decks, a.Logger)
	if err != nil {
		return err
	}
	a.UploadStore, err = files.NewUploadStore(a.Config.Storage.Filesystem.Uploads, a.Logger)
	if err != nil {
		return err
	}
	return nil
}

func (a *App) initServices() error {
	a.PolicyGate = policy.NewGate(a.Config, a.Logger)
	a.WebScraper = acquire.NewWebScraper(a.Config, a.Logger)
	a.WikipediaService = acquire.NewWikipediaService(a.Config, a.Logger)
	a.UploadExtractor = acquire.NewUploadExtractor(a.Logger)
	a.Aggregator = acquire.NewAggregator(a.Config, a.Logger)

	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService
	a.OutlineService = outline.NewService(llmService, a.Config.Generation.OutlineRetries, a.Logger)

	// Image resolution is optional: without an API key slides render text-only
	if a.Config.Pixabay.APIKey != "" {
		resolver, err := images.NewPixabayService(&a.Config.Pixabay, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize image resolver: %w", err)
		}
		a.ImageResolver = resolver
	} else {
		a.Logger.Warn().Msg("Pixabay API key not set, image resolution disabled")
	}

	a.Renderer = render.NewRenderer(a.Logger)

	a.GeneratorService = generator.NewService(a.Config, a.Logger, generator.Deps{
		Gate:          a.PolicyGate,
		Web:           a.WebScraper,
		Encyclopedic:  a.WikipediaService,
		Extractor:     a.UploadExtractor,
		Aggregator:    a.Aggregator,
		Outline:       a.OutlineService,
		Resolver:      a.ImageResolver,
		Renderer:      a.Renderer,
		Presentations: a.StorageManager.Presentations(),
		Images:        a.ImageStore,
		Decks:         a.DeckStore,
		Uploads:       a.UploadStore,
	})

	a.PresentationService = presentations.NewService(
		a.StorageManager.Presentations(),
		a.ImageStore,
		a.DeckStore,
		a.GeneratorService,
		a.Logger,
	)

	a.Sweeper = maintenance.NewSweeper(
		a.Config,
		a.Logger,
		a.StorageManager.Presentations(),
		a.ImageStore,
		a.DeckStore,
	)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.StorageManager.Presentations())
	a.GenerateHandler = handlers.NewGenerateHandler(a.GeneratorService)
	a.PresentationHandler = handlers.NewPresentationHandler(a.PresentationService)
	a.ImageHandler = handlers.NewImageHandler(a.ImageResolver, a.Config)
	a.UploadHandler = handlers.NewUploadHandler(a.UploadStore, a.UploadExtractor, a.Config)
	a.RobotsHandler = handlers.NewRobotsHandler(a.PolicyGate)
}

// Close shuts down background work and releases storage
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	a.cancelCtx()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
