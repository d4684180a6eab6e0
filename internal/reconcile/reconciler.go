package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/repository"
)

// Ack is the webhook acknowledgement body. Received=false only on signature
// failure; every logically handled outcome acks true so the gateway stops
// redelivering.
type Ack struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
	Unpaid    bool `json:"unpaid,omitempty"`
}

// Issuer converts a provisional insurance policy into a purchased, numbered
// one.
type Issuer interface {
	Purchase(ctx context.Context, policyID string) (string, error)
	SendPolicyEmail(ctx context.Context, policyID string) error
}

// Notifier is a best-effort port: the reconciler ignores delivery failures
// beyond logging them, because the payment is already durably recorded.
type Notifier interface {
	Notify(ctx context.Context, event kafka.NotificationEvent) error
}

type UseCase interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) (Ack, error)
}

// Reconciler translates a verified payment-gateway event into durable order
// state changes and side effects, exactly once per real-world payment.
type Reconciler struct {
	verifier  payment.Verifier
	ledger    repository.WebhookEventRepository
	tickets   repository.TicketRepository
	insurance repository.InsuranceRepository
	issuer    Issuer
	notifier  Notifier
}

func NewReconciler(
	verifier payment.Verifier,
	ledger repository.WebhookEventRepository,
	tickets repository.TicketRepository,
	insurance repository.InsuranceRepository,
	issuer Issuer,
	notifier Notifier,
) *Reconciler {
	return &Reconciler{
		verifier:  verifier,
		ledger:    ledger,
		tickets:   tickets,
		insurance: insurance,
		issuer:    issuer,
		notifier:  notifier,
	}
}

func (r *Reconciler) Handle(ctx context.Context, payload []byte, sigHeader string) (Ack, error) {
	event, err := r.verifier.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return Ack{}, fmt.Errorf("verify webhook: %w", err)
	}

	if event.Type != payment.EventCheckoutCompleted {
		return Ack{Received: true}, nil
	}

	session := event.Session
	productType := session.Metadata["productType"]
	if productType == "" {
		productType = "unknown"
	}
	sessionID := session.Metadata["sessionId"]

	// Ledger insert runs before any side effect; the unique constraint on the
	// event id is the dedup guard under concurrent redelivery.
	inserted, err := r.ledger.Insert(ctx, &domain.WebhookEvent{
		EventID:           event.ID,
		Type:              event.Type,
		ProductType:       domain.ProductType(productType),
		SessionID:         sessionID,
		ProviderCreatedAt: event.Created,
	})
	if err != nil {
		return Ack{}, fmt.Errorf("record webhook event: %w", err)
	}
	if !inserted {
		return Ack{Received: true, Duplicate: true}, nil
	}

	if session.PaymentStatus != payment.StatusPaid {
		return Ack{Received: true, Unpaid: true}, nil
	}

	if sessionID == "" {
		log.Printf("webhook %s has no sessionId in metadata, skipping", event.ID)
		return Ack{Received: true}, nil
	}

	amount := domain.MoneyFromMinorUnits(session.Currency, session.AmountTotal)

	switch domain.ProductType(productType) {
	case domain.ProductTicket:
		if err := r.settleTicket(ctx, sessionID, amount, session.TransactionID); err != nil {
			return Ack{}, err
		}
	case domain.ProductInsurance:
		if err := r.settleInsurance(ctx, sessionID, session.Metadata["policyId"], amount, session.TransactionID); err != nil {
			return Ack{}, err
		}
	default:
		log.Printf("unknown productType %q on webhook %s, skipping", productType, event.ID)
	}

	return Ack{Received: true}, nil
}

func (r *Reconciler) settleTicket(ctx context.Context, sessionID string, amount domain.Money, transactionID string) error {
	ticket, err := r.tickets.MarkPaid(ctx, sessionID, amount, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("no unpaid ticket for session %s, skipping", sessionID)
			return nil
		}
		return fmt.Errorf("mark ticket paid: %w", err)
	}

	if !ticket.TicketDelivery.Immediate {
		r.notify(ctx, kafka.NotificationEvent{
			Type:         kafka.NotificationLaterDelivery,
			ProductType:  string(domain.ProductTicket),
			SessionID:    sessionID,
			Email:        ticket.Email,
			Name:         ticket.LeadPassenger(),
			DeliveryDate: ticket.TicketDelivery.DeliveryDate,
		})
	}

	r.notify(ctx, kafka.NotificationEvent{
		Type:          kafka.NotificationPaymentConfirmed,
		ProductType:   string(domain.ProductTicket),
		SessionID:     sessionID,
		Email:         ticket.Email,
		Name:          ticket.LeadPassenger(),
		From:          ticket.From,
		To:            ticket.To,
		DepartureDate: ticket.DepartureDate,
		ReturnDate:    ticket.ReturnDate,
		Amount:        amount.Amount,
		Currency:      amount.Currency,
	})
	return nil
}

func (r *Reconciler) settleInsurance(ctx context.Context, sessionID, policyID string, amount domain.Money, transactionID string) error {
	app, err := r.insurance.MarkPaid(ctx, sessionID, amount, "", transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("no unpaid insurance application for session %s, skipping", sessionID)
			return nil
		}
		return fmt.Errorf("mark insurance paid: %w", err)
	}

	if policyID == "" {
		policyID = app.PolicyID
	}
	if policyID == "" {
		return fmt.Errorf("insurance session %s has no policy id to issue", sessionID)
	}

	// Issuance failure leaves the application PAID without a policy number
	// and surfaces an error; resolution is manual operator review.
	policyNumber, err := r.issuer.Purchase(ctx, policyID)
	if err != nil {
		return fmt.Errorf("issue policy %s: %w", policyID, err)
	}
	if policyNumber == "" {
		return fmt.Errorf("issuer returned no policy number for policy %s", policyID)
	}

	if err := r.insurance.SetPolicyNumber(ctx, sessionID, policyNumber); err != nil {
		return fmt.Errorf("store policy number: %w", err)
	}

	if err := r.issuer.SendPolicyEmail(ctx, policyID); err != nil {
		log.Printf("provider policy email for %s failed: %v", policyID, err)
	}

	r.notify(ctx, kafka.NotificationEvent{
		Type:         kafka.NotificationPaymentConfirmed,
		ProductType:  string(domain.ProductInsurance),
		SessionID:    sessionID,
		Email:        app.Email,
		Name:         app.LeadTraveller(),
		PolicyNumber: policyNumber,
		Amount:       amount.Amount,
		Currency:     amount.Currency,
	})
	return nil
}

func (r *Reconciler) notify(ctx context.Context, event kafka.NotificationEvent) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, event); err != nil {
		log.Printf("WARNING: failed to publish %s notification for session %s: %v", event.Type, event.SessionID, err)
	}
}

var _ UseCase = (*Reconciler)(nil)
