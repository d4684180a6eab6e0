package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/email"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
	"github.com/mydummyticket/mdt-backend/internal/metrics"
	"github.com/mydummyticket/mdt-backend/internal/repository"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	insuranceRepo := repository.NewInsuranceRepository(pool)
	emailSender := email.NewSender(cfg.Email)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	if cfg.Worker.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Worker.MetricsAddress, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			if err := emailSender.Send(ctx, event); err != nil {
				// The payment is already settled; a lost email is not worth
				// stalling the partition over.
				metrics.NotificationsSent.WithLabelValues(event.Type, "error").Inc()
				log.Printf("send %s email for session %s: %v", event.Type, event.SessionID, err)
				return nil
			}
			metrics.NotificationsSent.WithLabelValues(event.Type, "ok").Inc()
			return nil
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	reviewTicker := time.NewTicker(time.Duration(cfg.Worker.ReviewSweepMinutes) * time.Minute)
	defer reviewTicker.Stop()

	reviewDelay := time.Duration(cfg.Worker.ReviewDelayHours) * time.Hour

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reviewTicker.C:
			if err := sweepReviewEmails(ctx, insuranceRepo, emailSender, reviewDelay); err != nil {
				log.Printf("review sweep error: %v", err)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

// sweepReviewEmails asks customers with settled insurance policies for a
// review, once per application. The sent flag is claimed before the send so a
// crashed sweep can at worst drop an email, never double it.
func sweepReviewEmails(ctx context.Context, repo repository.InsuranceRepository, sender email.Sender, delay time.Duration) error {
	apps, err := repo.ListNeedingReviewEmail(ctx, time.Now().Add(-delay), 50)
	if err != nil {
		return err
	}

	for _, app := range apps {
		claimed, err := repo.MarkReviewEmailSent(ctx, app.SessionID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		event := kafka.NotificationEvent{
			Type:        kafka.NotificationReviewRequest,
			ProductType: string(domain.ProductInsurance),
			SessionID:   app.SessionID,
			Email:       app.Email,
			Name:        app.LeadTraveller(),
		}
		if err := sender.Send(ctx, event); err != nil {
			metrics.NotificationsSent.WithLabelValues(event.Type, "error").Inc()
			log.Printf("send review email for session %s: %v", app.SessionID, err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(event.Type, "ok").Inc()
	}
	return nil
}
