package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydummyticket/mdt-backend/internal/domain"
)

type AirlineRepository interface {
	GetByCodes(ctx context.Context, iataCodes []string) ([]domain.Airline, error)
	Upsert(ctx context.Context, airlines []domain.Airline) error
}

type PGAirlineRepository struct {
	db *pgxpool.Pool
}

func NewAirlineRepository(db *pgxpool.Pool) AirlineRepository {
	return &PGAirlineRepository{db: db}
}

func (r *PGAirlineRepository) GetByCodes(ctx context.Context, iataCodes []string) ([]domain.Airline, error) {
	rows, err := r.db.Query(ctx, `
		SELECT iata_code, icao_code, business_name, common_name, created_at
		FROM airlines WHERE iata_code = ANY($1)`, iataCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	airlines := make([]domain.Airline, 0)
	for rows.Next() {
		var a domain.Airline
		if err := rows.Scan(&a.IataCode, &a.IcaoCode, &a.BusinessName, &a.CommonName, &a.CreatedAt); err != nil {
			return nil, err
		}
		airlines = append(airlines, a)
	}
	return airlines, rows.Err()
}

func (r *PGAirlineRepository) Upsert(ctx context.Context, airlines []domain.Airline) error {
	batch := &pgx.Batch{}
	for _, a := range airlines {
		batch.Queue(`
			INSERT INTO airlines (iata_code, icao_code, business_name, common_name)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (iata_code) DO UPDATE SET
				icao_code=EXCLUDED.icao_code, business_name=EXCLUDED.business_name, common_name=EXCLUDED.common_name`,
			a.IataCode, a.IcaoCode, a.BusinessName, a.CommonName)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

var _ AirlineRepository = (*PGAirlineRepository)(nil)
