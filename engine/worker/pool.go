// Package worker provides an asynchronous worker pool that publishes
// persisted-beat events using the provided eventstream.Publisher.
//
// The pool decouples event publishing from the beat streaming hot path so a
// slow or unavailable broker never delays the child's story.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/pkg/eventstream"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Event *eventstream.BeatPersistedEvent
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every enqueued event.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each publish call (defaults to 10s).
	PublishTimeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes beat events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Event == nil {
		p.logger.Error("job not queued, nil event")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("story_id", job.Event.StoryID),
			zap.Int("beat", job.Event.BeatNumber),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("story_id", job.Event.StoryID),
			zap.Int("beat", job.Event.BeatNumber),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the API server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("event worker stopped", zap.Uint("worker_id", id))
}

// processJob publishes a single event. Failures are logged and dropped.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishBeat(ctx, job.Event); err != nil {
		p.logger.Error("beat event publish failed",
			zap.String("story_id", job.Event.StoryID),
			zap.Int("beat", job.Event.BeatNumber),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("beat event published",
		zap.String("event_id", job.Event.EventID),
		zap.String("story_id", job.Event.StoryID),
		zap.Int("beat", job.Event.BeatNumber),
	)
}
