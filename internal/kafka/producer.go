package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	NotificationPaymentConfirmed = "payment_confirmed"
	NotificationLaterDelivery    = "later_delivery"
	NotificationReviewRequest    = "review_request"
)

// NotificationEvent is the payload the worker turns into an email.
type NotificationEvent struct {
	Type          string  `json:"type"`
	ProductType   string  `json:"product_type"`
	SessionID     string  `json:"session_id"`
	Email         string  `json:"email"`
	Name          string  `json:"name,omitempty"`
	From          string  `json:"from,omitempty"`
	To            string  `json:"to,omitempty"`
	DepartureDate string  `json:"departure_date,omitempty"`
	ReturnDate    string  `json:"return_date,omitempty"`
	DeliveryDate  string  `json:"delivery_date,omitempty"`
	PolicyNumber  string  `json:"policy_number,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
