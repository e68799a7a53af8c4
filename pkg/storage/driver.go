// Package storage defines the persistence collaborator used for stories and
// their beats.
package storage

import (
	"context"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// Driver defines the interface for persisting and retrieving stories.
type Driver interface {
	// CreateStory inserts a new story at beat 0.
	CreateStory(ctx context.Context, styleSlug, themeSlug string) (*story.Story, error)

	// GetStory returns a story with its beats ordered by beat number.
	GetStory(ctx context.Context, id string) (*story.Story, error)

	// ListStories returns every story, newest first, without beats.
	ListStories(ctx context.Context) ([]*story.Story, error)

	// PersistBeat stores a validated beat response for storyID.
	PersistBeat(ctx context.Context, storyID string, beatNumber int, resp *beat.Response, provider, raw string) (*story.Beat, error)

	// SetChosenOption records the child's choice on a beat.
	SetChosenOption(ctx context.Context, beatID, option string) error

	// MarkStory updates a story's progress. Last write wins.
	MarkStory(ctx context.Context, storyID string, currentBeat int, isComplete bool) error

	// Close closes the store and releases any resources.
	Close() error
}
