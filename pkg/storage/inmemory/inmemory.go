// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards stories and beatIndex
	mu sync.RWMutex

	// stories is keyed by story ID. Each story owns its beats slice.
	stories map[string]*story.Story

	// beatIndex maps a beat ID to its story ID
	beatIndex map[string]string

	now func() time.Time
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory storer.
func NewDriver() *Driver {
	return &Driver{
		stories:   make(map[string]*story.Story),
		beatIndex: make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (d *Driver) CreateStory(_ context.Context, styleSlug, themeSlug string) (*story.Story, error) {
	now := d.now()
	s := &story.Story{
		ID:        uuid.NewString(),
		StyleSlug: styleSlug,
		ThemeSlug: themeSlug,
		CreatedAt: now,
		UpdatedAt: now,
		Beats:     []story.Beat{},
	}

	d.mu.Lock()
	d.stories[s.ID] = s
	d.mu.Unlock()

	return clone(s, true), nil
}

func (d *Driver) GetStory(_ context.Context, id string) (*story.Story, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.stories[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: "story", ID: id}
	}
	return clone(s, true), nil
}

func (d *Driver) ListStories(_ context.Context) ([]*story.Story, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*story.Story, 0, len(d.stories))
	for _, s := range d.stories {
		out = append(out, clone(s, false))
	}
	slices.SortFunc(out, func(a, b *story.Story) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (d *Driver) PersistBeat(_ context.Context, storyID string, beatNumber int, resp *beat.Response, provider, raw string) (*story.Beat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.stories[storyID]
	if !ok {
		return nil, storage.NotFoundError{Kind: "story", ID: storyID}
	}
	for _, b := range s.Beats {
		if b.BeatNumber == beatNumber {
			return nil, storage.ErrBeatExists
		}
	}

	b := story.NewBeat(storyID, resp, provider, raw)
	b.ID = uuid.NewString()
	b.BeatNumber = beatNumber
	b.CreatedAt = d.now()

	s.Beats = append(s.Beats, cloneBeat(b))
	slices.SortFunc(s.Beats, func(a, b story.Beat) int { return a.BeatNumber - b.BeatNumber })
	d.beatIndex[b.ID] = storyID

	out := cloneBeat(b)
	return &out, nil
}

func (d *Driver) SetChosenOption(_ context.Context, beatID, option string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	storyID, ok := d.beatIndex[beatID]
	if !ok {
		return storage.NotFoundError{Kind: "beat", ID: beatID}
	}

	s := d.stories[storyID]
	for i := range s.Beats {
		if s.Beats[i].ID == beatID {
			s.Beats[i].ChosenOption = &option
			return nil
		}
	}
	return storage.NotFoundError{Kind: "beat", ID: beatID}
}

func (d *Driver) MarkStory(_ context.Context, storyID string, currentBeat int, isComplete bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.stories[storyID]
	if !ok {
		return storage.NotFoundError{Kind: "story", ID: storyID}
	}
	s.CurrentBeat = currentBeat
	s.IsComplete = isComplete
	s.UpdatedAt = d.now()
	return nil
}

// Close is a no-op for the in-memory storer.
func (d *Driver) Close() error {
	return nil
}

// clone copies s so callers cannot mutate stored state.
func clone(s *story.Story, withBeats bool) *story.Story {
	out := *s
	out.Beats = []story.Beat{}
	if withBeats {
		for _, b := range s.Beats {
			out.Beats = append(out.Beats, cloneBeat(b))
		}
	}
	return &out
}

func cloneBeat(b story.Beat) story.Beat {
	b.Options = slices.Clone(b.Options)
	if b.Question != nil {
		q := *b.Question
		b.Question = &q
	}
	if b.ChosenOption != nil {
		c := *b.ChosenOption
		b.ChosenOption = &c
	}
	return b
}
