package notify

import (
	"context"

	"github.com/mydummyticket/mdt-backend/internal/kafka"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// KafkaNotifier publishes notification events for the worker to turn into
// emails. Callers treat delivery as best effort.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

func NewKafkaNotifier(producer Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event kafka.NotificationEvent) error {
	return n.producer.Publish(ctx, n.topic, event.SessionID, event)
}
