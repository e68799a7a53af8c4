package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/sse"
)

type stream struct {
	body   io.ReadCloser
	reader *sse.Reader

	done      bool
	closeOnce sync.Once
}

func (s *stream) Next() (string, error) {
	for !s.done {
		ev, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return "", &llm.BackendError{Backend: Name, Err: err}
		}

		var payload streamEvent
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			// Tolerate payloads we do not understand, such as pings.
			continue
		}

		switch payload.Type {
		case "content_block_delta":
			if payload.Delta != nil && payload.Delta.Type == "text_delta" && payload.Delta.Text != "" {
				return payload.Delta.Text, nil
			}
		case "message_stop":
			s.done = true
		case "error":
			s.done = true
			msg := "stream error"
			if payload.Error != nil {
				msg = fmt.Sprintf("%s: %s", payload.Error.Type, payload.Error.Message)
			}
			return "", &llm.BackendError{Backend: Name, Err: errors.New(msg)}
		}
	}

	return "", io.EOF
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
