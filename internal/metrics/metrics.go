package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts processed payment webhooks by outcome:
	// rejected, duplicate, unpaid, error, ok.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_checkout_sessions_total",
			Help: "Hosted checkout sessions created by product type",
		},
		[]string{"product"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_notifications_sent_total",
			Help: "Notification emails sent by type and result",
		},
		[]string{"type", "result"},
	)

	FlightSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdt_flight_searches_total",
			Help: "Flight searches by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
