// Package kafka publishes beat events to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/storysprout/pkg/eventstream"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "storysprout.beats"

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes each event as one JSON message keyed by story ID, so all
// beats of a story land on the same partition in order.
type Publisher struct {
	topic  string
	writer messageWriter
}

var _ eventstream.Publisher = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher. The writer connects lazily on the
// first publish.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return newPublisher(topic, &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}), nil
}

func newPublisher(topic string, w messageWriter) *Publisher {
	return &Publisher{topic: topic, writer: w}
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishBeat encodes event and writes it synchronously.
func (p *Publisher) PublishBeat(ctx context.Context, event *eventstream.BeatPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilBeatEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal beat event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.StoryID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	})
	if err != nil {
		return fmt.Errorf("publish beat event to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
