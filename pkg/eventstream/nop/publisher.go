package nop

import (
	"context"

	"github.com/papercomputeco/storysprout/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishBeat validates input and otherwise does nothing.
func (p *Publisher) PublishBeat(_ context.Context, event *eventstream.BeatPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilBeatEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
