package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
)

const (
	// EventCheckoutCompleted is the only event type the reconciler acts on.
	EventCheckoutCompleted = "checkout.session.completed"

	// StatusPaid is the gateway's payment_status for a settled charge.
	StatusPaid = "paid"
)

var (
	ErrInvalidAmount    = errors.New("invalid payment amount")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// CheckoutInput describes a hosted-checkout request. Metadata must carry
// productType and sessionId; those are the only fields read back from the
// webhook to correlate the payment with an order.
type CheckoutInput struct {
	Amount         float64
	Currency       string
	ProductName    string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession is the provider-neutral slice of the gateway's checkout
// object that the reconciler consumes.
type CheckoutSession struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
	TransactionID string
}

// Event is a verified webhook event.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Session CheckoutSession
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, error)
}

type Verifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (*Event, error)
}

// StripeGateway implements Gateway and Verifier against the Stripe API.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, error) {
	if err := ValidateAmount(in.Amount); err != nil {
		return "", err
	}

	currency := in.Currency
	if currency == "" {
		currency = "aed"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(in.CustomerEmail),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		InvoiceCreation:    &stripe.CheckoutSessionInvoiceCreationParams{Enabled: stripe.Bool(true)},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(MinorUnits(in.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0),
	}

	if out.Type == EventCheckoutCompleted {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = CheckoutSession{
			ID:            cs.ID,
			PaymentStatus: string(cs.PaymentStatus),
			AmountTotal:   cs.AmountTotal,
			Currency:      string(cs.Currency),
			Metadata:      cs.Metadata,
		}
		if cs.PaymentIntent != nil {
			out.Session.TransactionID = cs.PaymentIntent.ID
		}
	}
	return out, nil
}

// ValidateAmount rejects non-positive and non-finite totals before any
// gateway call is made.
func ValidateAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

// MinorUnits converts a decimal amount into the gateway's integer minor
// units.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

var (
	_ Gateway  = (*StripeGateway)(nil)
	_ Verifier = (*StripeGateway)(nil)
)
