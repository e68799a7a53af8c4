package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/story"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeBeatPersisted is emitted after a story beat is persisted.
	EventTypeBeatPersisted = "storysprout.beat.persisted"
)

// BeatPersistedEvent is a transport-neutral event payload for a persisted beat.
type BeatPersistedEvent struct {
	SchemaVersion int        `json:"schema_version"`
	EventType     string     `json:"event_type"`
	EventID       string     `json:"event_id"`
	EmittedAt     time.Time  `json:"emitted_at"`
	StoryID       string     `json:"story_id"`
	BeatNumber    int        `json:"beat_number"`
	StoryComplete bool       `json:"story_complete"`
	Provider      string     `json:"provider"`
	Retried       bool       `json:"retried"`
	Beat          story.Beat `json:"beat"`
}

// NewBeatPersistedEvent builds the event for b. retried reports whether
// the beat came from the non-streaming retry.
func NewBeatPersistedEvent(b *story.Beat, retried bool) *BeatPersistedEvent {
	return &BeatPersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeBeatPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		StoryID:       b.StoryID,
		BeatNumber:    b.BeatNumber,
		StoryComplete: b.BeatNumber == beat.FinalBeat,
		Provider:      b.Provider,
		Retried:       retried,
		Beat:          *b,
	}
}
