package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
)

func testSender() *SMTPSender {
	return NewSender(config.EmailConfig{
		From:       "noreply@mydummyticket.ae",
		AdminInbox: "info@mydummyticket.ae",
	})
}

func TestCompose_PaymentConfirmedGoesToAdmin(t *testing.T) {
	s := testSender()
	to, subject, body := s.compose(kafka.NotificationEvent{
		Type:        kafka.NotificationPaymentConfirmed,
		ProductType: "ticket",
		SessionID:   "sess-1",
		Email:       "pax@example.com",
		Name:        "Amina Khan",
		From:        "Dubai (DXB)",
		To:          "London (LHR)",
		Amount:      500,
		Currency:    "AED",
	})

	assert.Equal(t, "info@mydummyticket.ae", to)
	assert.Contains(t, subject, "Amina Khan")
	assert.Contains(t, body, "500.00 AED")
	assert.Contains(t, body, "Dubai (DXB)")
}

func TestCompose_LaterDeliveryGoesToCustomer(t *testing.T) {
	s := testSender()
	to, _, body := s.compose(kafka.NotificationEvent{
		Type:         kafka.NotificationLaterDelivery,
		SessionID:    "sess-1",
		Email:        "pax@example.com",
		Name:         "Amina Khan",
		DeliveryDate: "2026-10-15",
	})

	assert.Equal(t, "pax@example.com", to)
	assert.Contains(t, body, "2026-10-15")
}

func TestCompose_ReviewRequestLinksSession(t *testing.T) {
	s := testSender()
	to, _, body := s.compose(kafka.NotificationEvent{
		Type:      kafka.NotificationReviewRequest,
		SessionID: "sess-2",
		Email:     "traveller@example.com",
	})

	assert.Equal(t, "traveller@example.com", to)
	assert.Contains(t, body, "sessionId=sess-2")
}

func TestSend_NoRecipient(t *testing.T) {
	s := NewSender(config.EmailConfig{From: "noreply@mydummyticket.ae"})
	err := s.Send(context.Background(), kafka.NotificationEvent{
		Type:      kafka.NotificationLaterDelivery,
		SessionID: "sess-1",
	})
	assert.Error(t, err)
}
