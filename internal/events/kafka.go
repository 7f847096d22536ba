package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	// publishTimeout bounds the synchronous part of Publish, which is the
	// partition lookup for a topic not seen before.
	publishTimeout = 500 * time.Millisecond
	batchTimeout   = 10 * time.Millisecond
	writeTimeout   = 5 * time.Second
	maxAttempts    = 3
)

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes events to Kafka in the background. The topic is
// chosen per message. Delivery failures are logged, not returned.
type KafkaPublisher struct {
	writer *kafka.Writer
	lg     *zap.Logger
}

// NewKafkaPublisher creates a publisher for brokers.
func NewKafkaPublisher(brokers []string, lg *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{lg: lg}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            maxAttempts,
		Completion:             p.completed,
	}
	return p
}

// Publish implements Publisher. It returns once the message is queued.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return errors.Wrapf(err, "write to %s", topic)
	}
	return nil
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	topic := ""
	if len(messages) > 0 {
		topic = messages[0].Topic
	}
	p.lg.Warn("Event delivery failed",
		zap.String("topic", topic),
		zap.Int("messages", len(messages)),
		zap.Error(err),
	)
}

// Close flushes pending writes and closes connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
