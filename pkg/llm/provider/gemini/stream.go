package gemini

import (
	"io"
	"iter"
	"sync"

	"google.golang.org/genai"
)

type stream struct {
	pull func() (*genai.GenerateContentResponse, error, bool)
	stop func()

	done      bool
	closeOnce sync.Once
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{pull: next, stop: stop}
}

func (s *stream) Next() (string, error) {
	for !s.done {
		resp, err, ok := s.pull()
		if !ok {
			s.done = true
			break
		}
		if err != nil {
			s.done = true
			return "", wrapError(err)
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
	return "", io.EOF
}

func (s *stream) Close() error {
	s.closeOnce.Do(s.stop)
	return nil
}
