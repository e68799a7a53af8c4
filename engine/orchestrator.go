// Package engine drives the generation of a single story beat: it streams
// the provider's raw output to the client while revealing the segment text,
// validates the finished response, falls back to one non-streaming retry,
// and persists the accepted beat.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/engine/worker"
	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/eventstream"
	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/segment"
	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/story"
	"github.com/papercomputeco/storysprout/pkg/utils"
)

// fallbackErrorMessage is sent when a failure carries no usable message.
const fallbackErrorMessage = "Failed to generate beat"

// errClientGone marks a run abandoned because the client disconnected.
var errClientGone = errors.New("client disconnected")

// Config configures an Orchestrator.
type Config struct {
	// Client generates beats. Required.
	Client llm.Client

	// Store persists accepted beats. Required.
	Store storage.Driver

	// Validator checks responses. Defaults to beat.NewValidator().
	Validator *beat.Validator

	// Pool optionally publishes persisted-beat events.
	Pool *worker.Pool

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Orchestrator runs beats. It holds no per-run state and is safe for
// concurrent use.
type Orchestrator struct {
	client    llm.Client
	store     storage.Driver
	validator *beat.Validator
	pool      *worker.Pool
	logger    *zap.Logger
}

// New returns an Orchestrator.
func New(c Config) *Orchestrator {
	o := &Orchestrator{
		client:    c.Client,
		store:     c.Store,
		validator: c.Validator,
		pool:      c.Pool,
		logger:    c.Logger,
	}
	if o.validator == nil {
		o.validator = beat.NewValidator()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// run is the state of one beat generation.
type run struct {
	o       *Orchestrator
	storyID string
	prompt  story.Prompt
	emit    Emitter
	logger  *zap.Logger

	state    State
	terminal bool
	gone     bool
}

// Run generates the beat described by prompt for storyID, delivering
// events to emit. It returns the persisted beat, or nil on failure. Done is
// emitted exactly once on every path.
func (o *Orchestrator) Run(ctx context.Context, prompt story.Prompt, storyID string, emit Emitter) *story.Beat {
	r := &run{
		o:       o,
		storyID: storyID,
		prompt:  prompt,
		emit:    emit,
		logger: o.logger.With(
			zap.String("story_id", storyID),
			zap.Int("beat", prompt.NextBeat),
			zap.String("provider", o.client.Name()),
		),
	}
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (result *story.Beat) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("beat run panicked", zap.Any("panic", rec), zap.Stringer("state", r.state))
			r.fail(fmt.Sprint(rec))
			result = nil
		}
		r.send(Done())
	}()

	r.logger.Info("beat run started")

	raw, err := r.stream(ctx)
	if errors.Is(err, errClientGone) {
		r.logger.Info("client disconnected, beat run abandoned", zap.Int("raw_bytes", len(raw)))
		r.transition(StateFailed)
		return nil
	}
	if err != nil {
		r.logger.Error("beat stream failed", zap.Error(err))
		r.fail(err.Error())
		return nil
	}

	r.transition(StateValidating)
	resp, verr := r.o.validator.Validate(raw, r.prompt.NextBeat)
	if verr == nil {
		return r.persist(context.WithoutCancel(ctx), resp, r.o.client.Name(), raw, false)
	}

	r.logger.Warn("streamed beat failed validation, retrying",
		zap.Error(verr),
		zap.String("raw", utils.Truncate(raw, 200)),
	)
	return r.retry(context.WithoutCancel(ctx))
}

// stream consumes the provider stream, forwarding revealed segment text.
// It returns the accumulated raw text.
func (r *run) stream(ctx context.Context) (string, error) {
	r.transition(StateStreaming)

	s, err := r.o.client.Stream(ctx, r.prompt.Request())
	if err != nil {
		if ctx.Err() != nil {
			return "", errClientGone
		}
		return "", err
	}
	defer s.Close()

	extractor := segment.New(segment.DefaultField)
	for {
		if ctx.Err() != nil {
			return extractor.Raw(), errClientGone
		}

		frag, err := s.Next()
		if errors.Is(err, io.EOF) {
			return extractor.Raw(), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return extractor.Raw(), errClientGone
			}
			return extractor.Raw(), err
		}

		if text := extractor.Feed(frag); text != "" {
			if !r.send(TextChunk(text)) {
				return extractor.Raw(), errClientGone
			}
		}
	}
}

// retry performs the single non-streaming fallback. ctx is detached from
// the client so a started retry always runs to completion.
func (r *run) retry(ctx context.Context) *story.Beat {
	r.transition(StateRetrying)

	gen, err := r.o.client.Generate(ctx, r.prompt.Request())
	if err != nil {
		r.logger.Error("beat retry failed", zap.Error(err))
		r.fail(err.Error())
		return nil
	}

	resp, verr := r.o.validator.Validate(gen.Text, r.prompt.NextBeat)
	if verr != nil {
		r.logger.Error("retried beat failed validation",
			zap.Error(verr),
			zap.String("raw", utils.Truncate(gen.Text, 200)),
		)
		r.fail(verr.Error())
		return nil
	}

	provider := gen.Provider
	if provider == "" {
		provider = r.o.client.Name()
	}
	return r.persist(ctx, resp, provider, gen.Text, true)
}

func (r *run) persist(ctx context.Context, resp *beat.Response, provider, raw string, retried bool) *story.Beat {
	r.transition(StatePersisting)

	n := r.prompt.NextBeat
	b, err := r.o.store.PersistBeat(ctx, r.storyID, n, resp, provider, raw)
	if err != nil {
		r.logger.Error("failed to persist beat", zap.Error(err))
		r.fail(err.Error())
		return nil
	}

	if err := r.o.store.MarkStory(ctx, r.storyID, n, n == beat.FinalBeat); err != nil {
		r.logger.Error("failed to update story progress", zap.Error(err))
		r.fail(err.Error())
		return nil
	}

	r.transition(StateComplete)
	r.logger.Info("beat persisted",
		zap.String("beat_id", b.ID),
		zap.Bool("retried", retried),
		zap.Bool("story_complete", n == beat.FinalBeat),
	)

	r.terminal = true
	r.send(Complete(b))

	if r.o.pool != nil {
		r.o.pool.Enqueue(worker.Job{Event: eventstream.NewBeatPersistedEvent(b, retried)})
	}

	return b
}

// fail emits the Error event unless a terminal event was already sent.
func (r *run) fail(message string) {
	r.transition(StateFailed)
	if r.terminal {
		return
	}
	r.terminal = true

	if message == "" {
		message = fallbackErrorMessage
	}
	r.send(Error(message))
}

// send emits ev and reports whether the client is still there. Once an
// emit fails no further events are attempted.
func (r *run) send(ev Event) bool {
	if r.gone {
		return false
	}
	if err := r.emit(ev); err != nil {
		r.gone = true
		r.logger.Debug("emit failed", zap.Stringer("event", ev.Kind), zap.Error(err))
		return false
	}
	return true
}

func (r *run) transition(to State) {
	if r.state == to {
		return
	}
	r.logger.Debug("beat state", zap.Stringer("from", r.state), zap.Stringer("to", to))
	r.state = to
}
