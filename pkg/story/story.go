// Package story holds the story and persisted beat models, the style and
// theme catalog, and the prompt builder that drives beat progression.
package story

import (
	"time"

	"github.com/papercomputeco/storysprout/pkg/beat"
)

// Story is a single five-beat story and its persisted beats.
type Story struct {
	ID          string    `json:"id"`
	StyleSlug   string    `json:"styleSlug"`
	ThemeSlug   string    `json:"themeSlug"`
	CurrentBeat int       `json:"currentBeat"`
	IsComplete  bool      `json:"isComplete"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Beats is ordered by beat number.
	Beats []Beat `json:"beats"`
}

// Beat is a validated beat response after it has been stored.
type Beat struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"storyId"`
	BeatNumber int       `json:"beatNumber"`
	Segment    string    `json:"segment"`
	Question   *string   `json:"question"`
	Options    []string  `json:"options"`
	Provider   string    `json:"provider"`
	RawJSON    string    `json:"rawJson"`
	CreatedAt  time.Time `json:"createdAt"`

	// ChosenOption is attached once the child picks an option for the
	// following beat.
	ChosenOption *string `json:"chosenOption"`
}

// NewBeat builds an unsaved Beat from a validated response.
func NewBeat(storyID string, resp *beat.Response, provider, raw string) Beat {
	options := resp.Options
	if options == nil {
		options = []string{}
	}

	return Beat{
		StoryID:    storyID,
		BeatNumber: resp.Beat,
		Segment:    resp.Segment,
		Question:   resp.Question,
		Options:    options,
		Provider:   provider,
		RawJSON:    raw,
	}
}

// NextBeatNumber returns the number of the beat to generate next.
func (s *Story) NextBeatNumber() int {
	return len(s.Beats) + 1
}

// LastBeat returns the most recent beat, or nil for a new story.
func (s *Story) LastBeat() *Beat {
	if len(s.Beats) == 0 {
		return nil
	}
	return &s.Beats[len(s.Beats)-1]
}

// Finished reports whether the story is complete or has every beat.
func (s *Story) Finished() bool {
	return s.IsComplete || len(s.Beats) >= beat.FinalBeat
}
