package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(100))
	assert.NoError(t, ValidateAmount(0.5))

	assert.ErrorIs(t, ValidateAmount(0), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(-10), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(math.NaN()), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(math.Inf(1)), ErrInvalidAmount)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50000), MinorUnits(500))
	assert.Equal(t, int64(12550), MinorUnits(125.50))
	assert.Equal(t, int64(10), MinorUnits(0.1))
	// float noise must not shave a fils off
	assert.Equal(t, int64(1999), MinorUnits(19.99))
}

func signPayload(t *testing.T, secret string, payload []byte, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhook(t *testing.T) {
	const secret = "whsec_test"
	g := NewStripeGateway("sk_test", secret)

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": 1756700000,
		"data": {
			"object": {
				"id": "cs_test_1",
				"payment_status": "paid",
				"amount_total": 50000,
				"currency": "aed",
				"metadata": {"productType": "ticket", "sessionId": "sess-1"}
			}
		}
	}`)

	event, err := g.VerifyWebhook(payload, signPayload(t, secret, payload, time.Now()))
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, StatusPaid, event.Session.PaymentStatus)
	assert.Equal(t, int64(50000), event.Session.AmountTotal)
	assert.Equal(t, "ticket", event.Session.Metadata["productType"])
	assert.Equal(t, "sess-1", event.Session.Metadata["sessionId"])
}

func TestVerifyWebhook_BadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test", "whsec_test")
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	_, err := g.VerifyWebhook(payload, signPayload(t, "whsec_other", payload, time.Now()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.VerifyWebhook(payload, "garbage")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhook_StaleTimestamp(t *testing.T) {
	const secret = "whsec_test"
	g := NewStripeGateway("sk_test", secret)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	_, err := g.VerifyWebhook(payload, signPayload(t, secret, payload, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
