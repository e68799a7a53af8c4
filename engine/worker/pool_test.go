package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/pkg/eventstream"
	"github.com/papercomputeco/storysprout/pkg/story"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []*eventstream.BeatPersistedEvent
	fail    error
	blockCh chan struct{}
}

func (r *recordingPublisher) PublishBeat(_ context.Context, event *eventstream.BeatPersistedEvent) error {
	if r.blockCh != nil {
		<-r.blockCh
	}
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []*eventstream.BeatPersistedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.BeatPersistedEvent(nil), r.events...)
}

func testEvent(storyID string, n int) *eventstream.BeatPersistedEvent {
	return eventstream.NewBeatPersistedEvent(&story.Beat{StoryID: storyID, BeatNumber: n, Provider: "anthropic"}, false)
}

// newTestPool creates a worker pool backed by a recording publisher.
// Callers should "wp.Close()" to drain enqueued jobs before asserting publisher state.
func newTestPool(pub *recordingPublisher, c Config) *Pool {
	logger, _ := zap.NewDevelopment()
	c.Publisher = pub
	c.Logger = logger

	wp, err := NewPool(&c)
	Expect(err).NotTo(HaveOccurred())
	return wp
}

var _ = Describe("Worker Pool", func() {
	var pub *recordingPublisher

	BeforeEach(func() {
		pub = &recordingPublisher{}
	})

	Describe("NewPool", func() {
		It("requires a publisher", func() {
			_, err := NewPool(&Config{})
			Expect(err).To(HaveOccurred())
		})

		It("applies defaults", func() {
			c := &Config{Publisher: pub}
			wp, err := NewPool(c)
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(c.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(c.QueueSize).To(Equal(defaultJobQueueSize))
			Expect(c.PublishTimeout).To(Equal(defaultPublishTimeout))
		})
	})

	Describe("Enqueue", func() {
		It("publishes every queued event before Close returns", func() {
			wp := newTestPool(pub, Config{})
			for n := 1; n <= 5; n++ {
				Expect(wp.Enqueue(Job{Event: testEvent("s1", n)})).To(BeTrue())
			}
			wp.Close()

			var beats []int
			for _, e := range pub.published() {
				beats = append(beats, e.BeatNumber)
			}
			Expect(beats).To(ConsistOf(1, 2, 3, 4, 5))
		})

		It("rejects nil events", func() {
			wp := newTestPool(pub, Config{})
			defer wp.Close()
			Expect(wp.Enqueue(Job{})).To(BeFalse())
		})

		It("drops jobs when the queue is full", func() {
			pub.blockCh = make(chan struct{})
			wp := newTestPool(pub, Config{NumWorkers: 1, QueueSize: 1})

			// The first job occupies the single worker, the second fills the queue.
			Expect(wp.Enqueue(Job{Event: testEvent("s", 1)})).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(BeZero())
			Expect(wp.Enqueue(Job{Event: testEvent("s", 2)})).To(BeTrue())
			Expect(wp.Enqueue(Job{Event: testEvent("s", 3)})).To(BeFalse())

			close(pub.blockCh)
			wp.Close()
			Expect(pub.published()).To(HaveLen(2))
		})
	})

	It("logs and drops publish failures", func() {
		pub.fail = errors.New("broker down")
		wp := newTestPool(pub, Config{})
		Expect(wp.Enqueue(Job{Event: testEvent("s", 1)})).To(BeTrue())
		wp.Close()
		Expect(pub.published()).To(BeEmpty())
	})

	It("tolerates repeated Close", func() {
		wp := newTestPool(pub, Config{})
		wp.Close()
		wp.Close()
	})
})
