package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
)

type Sender interface {
	Send(ctx context.Context, event kafka.NotificationEvent) error
}

// SMTPSender formats notification events into plain-text emails. The operator
// inbox receives payment confirmations; everything else goes to the customer.
type SMTPSender struct {
	cfg config.EmailConfig
}

func NewSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	to, subject, body := s.compose(event)
	if to == "" {
		return fmt.Errorf("no recipient for %s notification (session %s)", event.Type, event.SessionID)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

func (s *SMTPSender) compose(e kafka.NotificationEvent) (to, subject, body string) {
	name := e.Name
	if name == "" {
		name = "Customer"
	}

	switch e.Type {
	case kafka.NotificationPaymentConfirmed:
		to = s.cfg.AdminInbox
		subject = fmt.Sprintf("Payment received from %s (%s)", name, e.ProductType)
		lines := []string{
			fmt.Sprintf("Product: %s", e.ProductType),
			fmt.Sprintf("Session: %s", e.SessionID),
			fmt.Sprintf("Customer: %s <%s>", name, e.Email),
			fmt.Sprintf("Amount paid: %.2f %s", e.Amount, e.Currency),
		}
		if e.From != "" {
			lines = append(lines, fmt.Sprintf("Route: %s -> %s, departing %s", e.From, e.To, e.DepartureDate))
		}
		if e.ReturnDate != "" {
			lines = append(lines, fmt.Sprintf("Returning: %s", e.ReturnDate))
		}
		if e.PolicyNumber != "" {
			lines = append(lines, fmt.Sprintf("Policy number: %s", e.PolicyNumber))
		}
		body = strings.Join(lines, "\n")

	case kafka.NotificationLaterDelivery:
		to = e.Email
		subject = "Your dummy ticket delivery date"
		body = fmt.Sprintf("Hi %s,\n\nYour payment was received. Your reservation document will be delivered on %s as requested.\n\nMyDummyTicket.ae",
			name, e.DeliveryDate)

	case kafka.NotificationReviewRequest:
		to = e.Email
		subject = "How was your travel insurance experience?"
		body = fmt.Sprintf("Hi %s,\n\nThanks for purchasing your travel insurance. Was everything smooth?\n\nLeave a quick review: https://mydummyticket.ae/review?sessionId=%s\n",
			name, e.SessionID)

	default:
		to = s.cfg.AdminInbox
		subject = "Notification: " + e.Type
		body = fmt.Sprintf("Session %s (%s)", e.SessionID, e.ProductType)
	}
	return to, subject, body
}

var _ Sender = (*SMTPSender)(nil)
