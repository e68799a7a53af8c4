package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
)

var (
	// ErrStoryNotFound is returned by PrepareBeat for an unknown story.
	ErrStoryNotFound = errors.New("story not found")

	// ErrStoryComplete is returned by PrepareBeat when the story already has
	// its final beat.
	ErrStoryComplete = errors.New("story is already complete")
)

// PrepareBeat loads storyID, commits chosenOption onto its last beat and
// builds the prompt for the next beat. An empty chosenOption is ignored.
func PrepareBeat(ctx context.Context, store storage.Driver, builder *story.PromptBuilder, storyID string, chosenOption *string) (story.Prompt, error) {
	s, err := loadStory(ctx, store, storyID)
	if err != nil {
		return story.Prompt{}, err
	}
	if s.Finished() {
		return story.Prompt{}, ErrStoryComplete
	}

	if chosenOption != nil && *chosenOption != "" {
		if last := s.LastBeat(); last != nil {
			if err := store.SetChosenOption(ctx, last.ID, *chosenOption); err != nil {
				return story.Prompt{}, fmt.Errorf("recording chosen option: %w", err)
			}

			s, err = loadStory(ctx, store, storyID)
			if err != nil {
				return story.Prompt{}, err
			}
		}
	}

	return builder.Build(s, nil)
}

func loadStory(ctx context.Context, store storage.Driver, storyID string) (*story.Story, error) {
	s, err := store.GetStory(ctx, storyID)
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, storyID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}
	return s, nil
}
