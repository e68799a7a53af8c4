package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/engine"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// Server is the API server for creating stories and streaming their beats.
type Server struct {
	config       Config
	storer       storage.Driver
	orchestrator *engine.Orchestrator
	builder      *story.PromptBuilder
	logger       *zap.Logger
	app          *fiber.App
}

// NewServer creates a new API server.
// The storer is shared with the orchestrator, which persists generated beats.
func NewServer(config Config, storer storage.Driver, orchestrator *engine.Orchestrator, logger *zap.Logger) *Server {
	if config.Catalog == nil {
		config.Catalog = story.DefaultCatalog()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{
		config:       config,
		storer:       storer,
		orchestrator: orchestrator,
		builder:      story.NewPromptBuilder(config.Catalog),
		logger:       logger,
		app:          app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/catalog", s.handleCatalog)
	app.Post("/stories", s.handleCreateStory)
	app.Get("/stories", s.handleListStories)
	app.Get("/stories/:id", s.handleGetStory)
	app.Post("/api/story-beat", s.handleStoryBeat)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
