package kafka

// NewPublisherWithWriter builds a Publisher around a fake writer.
func NewPublisherWithWriter(topic string, w messageWriter) *Publisher {
	return newPublisher(topic, w)
}
