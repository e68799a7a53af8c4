package testutils

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/papercomputeco/storysprout/pkg/llm"
)

// ErrFakeBackend is a canned backend failure.
var ErrFakeBackend = errors.New("fake backend failure")

// FakeClient is a scripted llm.Client. Stream replays Fragments and then
// ends with StreamErr (or io.EOF). Generate returns GenerateText or
// GenerateErr. Every call is recorded.
type FakeClient struct {
	name string

	Fragments []string

	// StartErr is returned by Stream itself.
	StartErr error

	// StreamErr is returned by Next after every fragment was delivered.
	StreamErr error

	GenerateText string
	GenerateErr  error

	// OnNext, when set, runs before each fragment is returned.
	OnNext func(i int)

	mu            sync.Mutex
	streamCalls   int
	generateCalls int
	requests      []llm.GenerationRequest
	streams       []*FakeStream
}

var _ llm.Client = (*FakeClient)(nil)

// NewFakeClient creates a FakeClient reporting name.
func NewFakeClient(name string) *FakeClient {
	return &FakeClient{name: name}
}

func (f *FakeClient) Name() string {
	return f.name
}

func (f *FakeClient) Generate(_ context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	f.mu.Lock()
	f.generateCalls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.GenerateErr != nil {
		return llm.Generation{}, f.GenerateErr
	}
	return llm.Generation{Text: f.GenerateText, Provider: f.name}, nil
}

func (f *FakeClient) Stream(_ context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.streamCalls++
	f.requests = append(f.requests, req)
	if f.StartErr != nil {
		return nil, f.StartErr
	}

	s := &FakeStream{fragments: f.Fragments, err: f.StreamErr, onNext: f.OnNext}
	f.streams = append(f.streams, s)
	return s, nil
}

// StreamCalls returns the number of Stream calls.
func (f *FakeClient) StreamCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls
}

// GenerateCalls returns the number of Generate calls.
func (f *FakeClient) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// Requests returns every request seen, in call order.
func (f *FakeClient) Requests() []llm.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.GenerationRequest(nil), f.requests...)
}

// LastStream returns the most recently opened stream, or nil.
func (f *FakeClient) LastStream() *FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

// FakeStream replays a fixed list of fragments.
type FakeStream struct {
	fragments []string
	err       error
	onNext    func(i int)

	mu     sync.Mutex
	pulled int
	closed bool
}

func (s *FakeStream) Next() (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", io.ErrClosedPipe
	}
	if s.pulled >= len(s.fragments) {
		s.mu.Unlock()
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	i := s.pulled
	s.pulled++
	s.mu.Unlock()

	if s.onNext != nil {
		s.onNext(i)
	}
	return s.fragments[i], nil
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Pulled returns how many fragments were delivered.
func (s *FakeStream) Pulled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulled
}

// Closed reports whether Close was called.
func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
