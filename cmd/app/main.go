package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/amadeus"
	"github.com/mydummyticket/mdt-backend/internal/bootstrap"
	"github.com/mydummyticket/mdt-backend/internal/cache"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
	"github.com/mydummyticket/mdt-backend/internal/migrate"
	"github.com/mydummyticket/mdt-backend/internal/notify"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/reconcile"
	"github.com/mydummyticket/mdt-backend/internal/repository"
	"github.com/mydummyticket/mdt-backend/internal/service/flights"
	"github.com/mydummyticket/mdt-backend/internal/service/insurance"
	"github.com/mydummyticket/mdt-backend/internal/service/tickets"
	"github.com/mydummyticket/mdt-backend/internal/wis"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Run(cfg.Database.URL(), "migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.FlightsTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := notify.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	wisClient, err := wis.NewClient(cfg.Insurance)
	if err != nil {
		log.Fatalf("insurance provider: %v", err)
	}
	amadeusClient, err := amadeus.NewClient(cfg.Amadeus)
	if err != nil {
		log.Fatalf("flight provider: %v", err)
	}

	ticketRepo := repository.NewTicketRepository(pool)
	insuranceRepo := repository.NewInsuranceRepository(pool)
	airlineRepo := repository.NewAirlineRepository(pool)
	webhookRepo := repository.NewWebhookEventRepository(pool)

	ticketService := tickets.NewTicketService(ticketRepo, gateway, cfg.Frontend.BaseURL)
	insuranceService := insurance.NewInsuranceService(insuranceRepo, wisClient, gateway, redisCache, cfg.Frontend.BaseURL)
	flightService := flights.NewFlightService(amadeusClient, airlineRepo, redisCache)
	reconciler := reconcile.NewReconciler(gateway, webhookRepo, ticketRepo, insuranceRepo, wisClient, notifier)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Tickets:    ticketService,
		Insurance:  insuranceService,
		Flights:    flightService,
		Reconciler: reconciler,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
