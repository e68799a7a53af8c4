package eventstream

import "context"

// Publisher publishes beat events to an event stream backend.
type Publisher interface {
	PublishBeat(ctx context.Context, event *BeatPersistedEvent) error
	Close() error
}
