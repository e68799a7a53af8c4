package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// CatalogResponse lists the selectable styles and themes.
type CatalogResponse struct {
	Styles []story.Style `json:"styles"`
	Themes []story.Theme `json:"themes"`
}

// CreateStoryRequest is the body of POST /stories.
type CreateStoryRequest struct {
	StyleSlug string `json:"styleSlug"`
	ThemeSlug string `json:"themeSlug"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleCatalog(c *fiber.Ctx) error {
	return c.JSON(CatalogResponse{
		Styles: s.config.Catalog.Styles,
		Themes: s.config.Catalog.Themes,
	})
}

// handleCreateStory starts a new story at beat 0.
func (s *Server) handleCreateStory(c *fiber.Ctx) error {
	var req CreateStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if _, ok := s.config.Catalog.LookupStyle(req.StyleSlug); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "unknown style: " + req.StyleSlug})
	}
	if _, ok := s.config.Catalog.LookupTheme(req.ThemeSlug); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "unknown theme: " + req.ThemeSlug})
	}

	st, err := s.storer.CreateStory(c.UserContext(), req.StyleSlug, req.ThemeSlug)
	if err != nil {
		s.logger.Error("failed to create story", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to create story"})
	}

	s.logger.Info("story created",
		zap.String("story_id", st.ID),
		zap.String("style", st.StyleSlug),
		zap.String("theme", st.ThemeSlug),
	)
	return c.Status(fiber.StatusCreated).JSON(st)
}

// handleListStories returns every story, newest first.
func (s *Server) handleListStories(c *fiber.Ctx) error {
	stories, err := s.storer.ListStories(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list stories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list stories"})
	}
	return c.JSON(stories)
}

// handleGetStory returns a single story with its beats.
func (s *Server) handleGetStory(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	st, err := s.storer.GetStory(c.UserContext(), id)
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "Story not found"})
	}
	if err != nil {
		s.logger.Error("failed to get story", zap.String("story_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get story"})
	}

	return c.JSON(st)
}
