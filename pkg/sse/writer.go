package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Writer frames payloads as SSE data events.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer emitting to w. Each event is written with a
// single Write call so that an io.Pipe delivers it as one chunk.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteData writes payload as one event. Multi-line payloads are split
// into several "data:" lines.
func (w *Writer) WriteData(payload string) error {
	var b strings.Builder
	for line := range strings.SplitSeq(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteJSON JSON-encodes v and writes it as one event.
func (w *Writer) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding sse payload: %w", err)
	}
	return w.WriteData(string(payload))
}

// WriteDone writes the terminating sentinel event.
func (w *Writer) WriteDone() error {
	return w.WriteData(DoneSentinel)
}
