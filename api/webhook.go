package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mydummyticket/mdt-backend/internal/metrics"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/reconcile"
)

// WebhookHandler receives payment-gateway webhooks. The raw body must reach
// the verifier untouched, so no binding middleware runs on this route.
type WebhookHandler struct {
	reconciler reconcile.UseCase
}

func NewWebhookHandler(reconciler reconcile.UseCase) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Register mounts the webhook route on a product group; both products share
// one handler because routing happens on the event metadata, not the URL.
func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/webhook", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"received": false})
		return
	}

	ack, err := h.reconciler.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			metrics.WebhookEvents.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"received": false})
			return
		}
		// A 5xx makes the gateway redeliver; the event ledger keeps the retry
		// from settling the order twice.
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		log.Printf("webhook processing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"received": false})
		return
	}

	switch {
	case ack.Duplicate:
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
	case ack.Unpaid:
		metrics.WebhookEvents.WithLabelValues("unpaid").Inc()
	default:
		metrics.WebhookEvents.WithLabelValues("ok").Inc()
	}
	c.JSON(http.StatusOK, ack)
}
