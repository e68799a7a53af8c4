package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/engine"
	"github.com/papercomputeco/storysprout/pkg/llm"
)

// BeatRequest is the body of POST /api/story-beat.
type BeatRequest struct {
	StoryID string `json:"storyId"`

	// ChosenOption is the child's pick from the previous beat's options.
	ChosenOption *string `json:"chosenOption"`
}

// handleStoryBeat generates the next beat of a story and streams it to the
// client as server-sent events.
func (s *Server) handleStoryBeat(c *fiber.Ctx) error {
	var req BeatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	if req.StoryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "storyId is required"})
	}

	prompt, err := engine.PrepareBeat(c.UserContext(), s.storer, s.builder, req.StoryID, req.ChosenOption)
	switch {
	case errors.Is(err, engine.ErrStoryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "Story not found"})
	case errors.Is(err, engine.ErrStoryComplete):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "Story is already complete"})
	case err != nil:
		s.logger.Error("failed to prepare beat", zap.String("story_id", req.StoryID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to prepare beat"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The run outlives the handler; it is cancelled once the client stops
	// reading from the pipe.
	ctx, cancel := context.WithCancel(context.Background())

	// pw.Write blocks until fasthttp consumes the chunk, so every event is
	// flushed to the client as it is produced.
	pr, pw := io.Pipe()
	go func() {
		defer cancel()
		defer pw.Close()

		sse := engine.NewSSEEmitter(pw)
		emit := func(ev engine.Event) error {
			if err := sse(ev); err != nil {
				cancel()
				return err
			}
			return nil
		}

		s.orchestrator.Run(ctx, prompt, req.StoryID, emit)
	}()

	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}
