package domain

import "time"

type ProductType string

const (
	ProductTicket    ProductType = "ticket"
	ProductInsurance ProductType = "insurance"
)

// WebhookEvent is a ledger row recording a gateway event id that has been
// accepted for processing. The unique constraint on EventID is the sole
// deduplication mechanism for webhook redelivery.
type WebhookEvent struct {
	EventID           string
	Type              string
	ProductType       ProductType
	SessionID         string
	ProviderCreatedAt time.Time
	CreatedAt         time.Time
}
