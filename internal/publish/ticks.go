package publish

import (
	"context"

	"NepsePulse/internal/domain/models"
	"NepsePulse/pkg/kafka"
)

// TickPublisher emits live ticks to Kafka, keyed by symbol so one
// symbol's updates land on one partition in order.
type TickPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewTickPublisher creates a publisher writing to topic.
func NewTickPublisher(producer *kafka.Producer, topic string) *TickPublisher {
	return &TickPublisher{producer: producer, topic: topic}
}

// PublishTicks sends one message per tick as a single batch.
func (t *TickPublisher) PublishTicks(ctx context.Context, ticks []models.MarketTick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(ticks))
	for _, tick := range ticks {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(tick.Symbol),
			Value: tick,
		})
	}
	return t.producer.PublishBatch(ctx, t.topic, msgs)
}

// Close closes the underlying producer.
func (t *TickPublisher) Close() error {
	return t.producer.Close()
}
