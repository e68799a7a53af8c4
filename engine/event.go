package engine

import (
	"io"

	"github.com/papercomputeco/storysprout/pkg/sse"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// EventKind discriminates the Event union.
type EventKind int

const (
	// KindTextChunk carries newly revealed segment text.
	KindTextChunk EventKind = iota
	// KindComplete carries the persisted beat.
	KindComplete
	// KindError carries a failure message.
	KindError
	// KindDone terminates the event sequence.
	KindDone
)

func (k EventKind) String() string {
	switch k {
	case KindTextChunk:
		return "text"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one item of a beat's event sequence: zero or more text chunks,
// exactly one Complete or Error, then Done.
type Event struct {
	Kind    EventKind
	Text    string
	Beat    *story.Beat
	Message string
}

// TextChunk returns a text fragment event.
func TextChunk(text string) Event {
	return Event{Kind: KindTextChunk, Text: text}
}

// Complete returns the success event for b.
func Complete(b *story.Beat) Event {
	return Event{Kind: KindComplete, Beat: b}
}

// Error returns a failure event.
func Error(message string) Event {
	return Event{Kind: KindError, Message: message}
}

// Done returns the terminal event.
func Done() Event {
	return Event{Kind: KindDone}
}

// Emitter delivers an event to the client. A non-nil error means the
// client is gone.
type Emitter func(Event) error

type completePayload struct {
	Type string      `json:"type"`
	Beat *story.Beat `json:"beat"`
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewSSEEmitter returns an Emitter that encodes events onto w using the
// beat stream wire format.
func NewSSEEmitter(w io.Writer) Emitter {
	sw := sse.NewWriter(w)

	return func(ev Event) error {
		switch ev.Kind {
		case KindTextChunk:
			return sw.WriteJSON(ev.Text)
		case KindComplete:
			return sw.WriteJSON(completePayload{Type: "complete", Beat: ev.Beat})
		case KindError:
			return sw.WriteJSON(errorPayload{Type: "error", Message: ev.Message})
		case KindDone:
			return sw.WriteDone()
		default:
			return nil
		}
	}
}
