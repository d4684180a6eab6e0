package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	offersTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, offersTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		offersTTL: offersTTL,
	}
}

// GetOffers returns cached search results for the criteria, or nil on a miss.
func (c *RedisCache) GetOffers(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FlightOffer, error) {
	data, err := c.client.Get(ctx, offersKey(criteria)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var offers []domain.FlightOffer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (c *RedisCache) SetOffers(ctx context.Context, criteria domain.SearchCriteria, offers []domain.FlightOffer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, offersKey(criteria), payload, c.offersTTL).Err()
}

func offersKey(criteria domain.SearchCriteria) string {
	return fmt.Sprintf("cache:offers:%s:%s:%s:%s:%s",
		criteria.Type, criteria.From, criteria.To, criteria.DepartureDate, criteria.ReturnDate)
}

const nationalitiesKey = "cache:nationalities"

// The nationality list changes rarely; a day of staleness is acceptable.
const nationalitiesTTL = 24 * time.Hour

func (c *RedisCache) GetNationalities(ctx context.Context) ([]domain.Nationality, error) {
	data, err := c.client.Get(ctx, nationalitiesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var nationalities []domain.Nationality
	if err := json.Unmarshal(data, &nationalities); err != nil {
		return nil, err
	}
	return nationalities, nil
}

func (c *RedisCache) SetNationalities(ctx context.Context, nationalities []domain.Nationality) error {
	payload, err := json.Marshal(nationalities)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, nationalitiesKey, payload, nationalitiesTTL).Err()
}
