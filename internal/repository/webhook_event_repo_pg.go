package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydummyticket/mdt-backend/internal/domain"
)

type WebhookEventRepository interface {
	// Insert records the event id before any side effect runs. It reports
	// false when the id already exists, which is the dedup signal.
	Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error)
}

type PGWebhookEventRepository struct {
	db *pgxpool.Pool
}

func NewWebhookEventRepository(db *pgxpool.Pool) WebhookEventRepository {
	return &PGWebhookEventRepository{db: db}
}

func (r *PGWebhookEventRepository) Insert(ctx context.Context, e *domain.WebhookEvent) (bool, error) {
	var providerCreatedAt any
	if !e.ProviderCreatedAt.IsZero() {
		providerCreatedAt = e.ProviderCreatedAt
	}

	cmd, err := r.db.Exec(ctx, `
		INSERT INTO webhook_events (event_id, event_type, product_type, session_id, provider_created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.Type, e.ProductType, nullable(e.SessionID), providerCreatedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ WebhookEventRepository = (*PGWebhookEventRepository)(nil)
