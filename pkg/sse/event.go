// Package sse reads and writes Server-Sent Events.
//
// Reader parses the event streams returned by upstream LLM backends.
// Writer produces the "data: <payload>\n\n" framing sent to story clients,
// terminated by a "data: [DONE]" sentinel.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DoneSentinel is the data payload that terminates a stream.
const DoneSentinel = "[DONE]"

// Event represents a single parsed SSE event, delimited by a blank line.
type Event struct {
	// Type is the value of the "event:" field. Empty means the default
	// "message" type.
	Type string

	// Data is the concatenation of all "data:" lines, joined with "\n".
	Data string

	// ID is the last "id:" field value, if present.
	ID string
}

// IsDone reports whether the event carries the terminating sentinel.
func (e *Event) IsDone() bool {
	return e.Data == DoneSentinel
}
