package sse

import (
	"bufio"
	"io"
	"strings"
)

// Reader parses SSE events from an upstream response body.
type Reader struct {
	scanner *bufio.Scanner

	// current accumulates fields for the event being built.
	current *Event
	hasData bool
}

// NewReader returns a Reader consuming src.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		current: &Event{},
	}
}

// Next blocks until a complete event is available and returns it. It
// returns io.EOF once the source is exhausted. An event left open when the
// source ends without a trailing blank line is still returned.
func (r *Reader) Next() (*Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			if r.hasData {
				return r.take(), nil
			}
			// Keep-alive or leading blank line.
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if r.hasData {
		return r.take(), nil
	}

	return nil, io.EOF
}

// parseLine accumulates one "field:value" line into the current event.
// A single space after the colon is stripped.
func (r *Reader) parseLine(line string) {
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		if r.hasData && r.current.Data != "" {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.hasData = true
	case "event":
		r.current.Type = value
		r.hasData = true
	case "id":
		r.current.ID = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
	}
}

func (r *Reader) take() *Event {
	ev := r.current
	r.current = &Event{}
	r.hasData = false
	return ev
}
