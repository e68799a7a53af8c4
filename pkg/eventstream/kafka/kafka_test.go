package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/storysprout/pkg/eventstream"
	"github.com/papercomputeco/storysprout/pkg/eventstream/kafka"
	"github.com/papercomputeco/storysprout/pkg/story"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter("beats", writer)
	})

	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("defaults the topic", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Topic()).To(Equal(kafka.DefaultTopic))
		Expect(p.Close()).To(Succeed())
	})

	It("rejects nil events", func() {
		Expect(pub.PublishBeat(context.Background(), nil)).To(MatchError(eventstream.ErrNilBeatEvent))
	})

	It("writes one JSON message keyed by story", func() {
		event := eventstream.NewBeatPersistedEvent(&story.Beat{StoryID: "story-9", BeatNumber: 3, Provider: "gemini"}, false)
		Expect(pub.PublishBeat(context.Background(), event)).To(Succeed())

		Expect(writer.messages).To(HaveLen(1))
		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("story-9"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte("storysprout.beat.persisted")}))

		var decoded eventstream.BeatPersistedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.BeatNumber).To(Equal(3))
		Expect(decoded.Provider).To(Equal("gemini"))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker down")
		event := eventstream.NewBeatPersistedEvent(&story.Beat{StoryID: "s"}, false)
		err := pub.PublishBeat(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(err).To(MatchError(ContainSubstring("beats")))
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
