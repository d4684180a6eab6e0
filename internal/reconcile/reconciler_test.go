package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/kafka"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/repository"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyWebhook(payload []byte, sigHeader string) (*payment.Event, error) {
	args := m.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Insert(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

type MockTicketRepo struct {
	mock.Mock
}

func (m *MockTicketRepo) Upsert(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Ticket, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepo) MarkPaid(ctx context.Context, sessionID string, amount domain.Money, transactionID string) (*domain.Ticket, error) {
	args := m.Called(ctx, sessionID, amount, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepo) List(ctx context.Context, q repository.ListQuery) ([]domain.Ticket, repository.Pagination, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Ticket), args.Get(1).(repository.Pagination), args.Error(2)
}

func (m *MockTicketRepo) UpdateOrderStatus(ctx context.Context, sessionID string, status domain.OrderStatus, handledBy string) (*domain.Ticket, error) {
	args := m.Called(ctx, sessionID, status, handledBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepo) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockInsuranceRepo struct {
	mock.Mock
}

func (m *MockInsuranceRepo) Create(ctx context.Context, app *domain.InsuranceApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockInsuranceRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.InsuranceApplication, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InsuranceApplication), args.Error(1)
}

func (m *MockInsuranceRepo) MarkPaid(ctx context.Context, sessionID string, amount domain.Money, policyNumber, transactionID string) (*domain.InsuranceApplication, error) {
	args := m.Called(ctx, sessionID, amount, policyNumber, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InsuranceApplication), args.Error(1)
}

func (m *MockInsuranceRepo) SetPolicyNumber(ctx context.Context, sessionID, policyNumber string) error {
	args := m.Called(ctx, sessionID, policyNumber)
	return args.Error(0)
}

func (m *MockInsuranceRepo) List(ctx context.Context, q repository.ListQuery) ([]domain.InsuranceApplication, repository.Pagination, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.InsuranceApplication), args.Get(1).(repository.Pagination), args.Error(2)
}

func (m *MockInsuranceRepo) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockInsuranceRepo) ListNeedingReviewEmail(ctx context.Context, paidBefore time.Time, limit int) ([]domain.InsuranceApplication, error) {
	args := m.Called(ctx, paidBefore, limit)
	return args.Get(0).([]domain.InsuranceApplication), args.Error(1)
}

func (m *MockInsuranceRepo) MarkReviewEmailSent(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Purchase(ctx context.Context, policyID string) (string, error) {
	args := m.Called(ctx, policyID)
	return args.String(0), args.Error(1)
}

func (m *MockIssuer) SendPolicyEmail(ctx context.Context, policyID string) error {
	args := m.Called(ctx, policyID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event kafka.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	verifier  *MockVerifier
	ledger    *MockLedger
	tickets   *MockTicketRepo
	insurance *MockInsuranceRepo
	issuer    *MockIssuer
	notifier  *MockNotifier
	r         *Reconciler
}

func newFixture() *fixture {
	f := &fixture{
		verifier:  &MockVerifier{},
		ledger:    &MockLedger{},
		tickets:   &MockTicketRepo{},
		insurance: &MockInsuranceRepo{},
		issuer:    &MockIssuer{},
		notifier:  &MockNotifier{},
	}
	f.r = NewReconciler(f.verifier, f.ledger, f.tickets, f.insurance, f.issuer, f.notifier)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.verifier.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.tickets.AssertExpectations(t)
	f.insurance.AssertExpectations(t)
	f.issuer.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func ticketEvent(id, sessionID, paymentStatus string) *payment.Event {
	return &payment.Event{
		ID:      id,
		Type:    payment.EventCheckoutCompleted,
		Created: time.Now(),
		Session: payment.CheckoutSession{
			ID:            "cs_test_1",
			PaymentStatus: paymentStatus,
			AmountTotal:   50000,
			Currency:      "aed",
			Metadata: map[string]string{
				"productType": "ticket",
				"sessionId":   sessionID,
			},
			TransactionID: "pi_1",
		},
	}
}

func TestReconciler_InvalidSignature(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", []byte("payload"), "bad").
		Return(nil, payment.ErrInvalidSignature)

	_, err := f.r.Handle(context.Background(), []byte("payload"), "bad")

	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_IgnoresOtherEventTypes(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(&payment.Event{ID: "evt_1", Type: "invoice.paid", Created: time.Now()}, nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.ledger.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_DuplicateEvent(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "sess-1", payment.StatusPaid), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(false, nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	assert.True(t, ack.Duplicate)
	f.tickets.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_UnpaidSession(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "sess-1", "unpaid"), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	assert.True(t, ack.Unpaid)
	f.tickets.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_TicketSettled(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "sess-1", payment.StatusPaid), nil)
	f.ledger.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.WebhookEvent) bool {
		return e.EventID == "evt_1" && e.ProductType == domain.ProductTicket && e.SessionID == "sess-1"
	})).Return(true, nil)

	paid := &domain.Ticket{
		SessionID:      "sess-1",
		Email:          "pax@example.com",
		Passengers:     []domain.Passenger{{FirstName: "Amina", LastName: "Khan"}},
		From:           "Dubai (DXB)",
		To:             "London (LHR)",
		DepartureDate:  "2026-10-01",
		PaymentStatus:  domain.PaymentStatusPaid,
		TicketDelivery: domain.TicketDelivery{Immediate: true},
	}
	f.tickets.On("MarkPaid", mock.Anything, "sess-1", domain.Money{Currency: "AED", Amount: 500}, "pi_1").
		Return(paid, nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e kafka.NotificationEvent) bool {
		return e.Type == kafka.NotificationPaymentConfirmed && e.Amount == 500 && e.Currency == "AED"
	})).Return(nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	f.assertExpectations(t)
}

func TestReconciler_TicketLaterDeliveryNotification(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "sess-1", payment.StatusPaid), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	paid := &domain.Ticket{
		SessionID:      "sess-1",
		Email:          "pax@example.com",
		PaymentStatus:  domain.PaymentStatusPaid,
		TicketDelivery: domain.TicketDelivery{Immediate: false, DeliveryDate: "2026-10-15"},
	}
	f.tickets.On("MarkPaid", mock.Anything, "sess-1", mock.Anything, "pi_1").Return(paid, nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e kafka.NotificationEvent) bool {
		return e.Type == kafka.NotificationLaterDelivery && e.DeliveryDate == "2026-10-15"
	})).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e kafka.NotificationEvent) bool {
		return e.Type == kafka.NotificationPaymentConfirmed
	})).Return(nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.notifier.AssertNumberOfCalls(t, "Notify", 2)
	f.assertExpectations(t)
}

func TestReconciler_UnknownSessionAcked(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "abc-123", payment.StatusPaid), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	f.tickets.On("MarkPaid", mock.Anything, "abc-123", mock.Anything, "pi_1").
		Return(nil, repository.ErrNotFound)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_UnknownProductTypeAcked(t *testing.T) {
	f := newFixture()
	ev := ticketEvent("evt_1", "sess-1", payment.StatusPaid)
	ev.Session.Metadata["productType"] = "subscription"
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).Return(ev, nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.tickets.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.insurance.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_LedgerErrorSurfaced(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(ticketEvent("evt_1", "sess-1", payment.StatusPaid), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	_, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.Error(t, err)
	f.tickets.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func insuranceEvent(id, sessionID string) *payment.Event {
	return &payment.Event{
		ID:      id,
		Type:    payment.EventCheckoutCompleted,
		Created: time.Now(),
		Session: payment.CheckoutSession{
			ID:            "cs_test_2",
			PaymentStatus: payment.StatusPaid,
			AmountTotal:   12550,
			Currency:      "aed",
			Metadata: map[string]string{
				"productType": "insurance",
				"sessionId":   sessionID,
				"policyId":    "pol-77",
			},
			TransactionID: "pi_2",
		},
	}
}

func TestReconciler_InsuranceIssued(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(insuranceEvent("evt_2", "sess-2"), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	app := &domain.InsuranceApplication{
		SessionID:     "sess-2",
		Email:         "traveller@example.com",
		Passengers:    []domain.Traveller{{FirstName: "Omar", LastName: "Saleh"}},
		PolicyID:      "pol-77",
		PaymentStatus: domain.PaymentStatusPaid,
	}
	f.insurance.On("MarkPaid", mock.Anything, "sess-2", domain.Money{Currency: "AED", Amount: 125.5}, "", "pi_2").
		Return(app, nil)
	f.issuer.On("Purchase", mock.Anything, "pol-77").Return("PN-001", nil)
	f.insurance.On("SetPolicyNumber", mock.Anything, "sess-2", "PN-001").Return(nil)
	f.issuer.On("SendPolicyEmail", mock.Anything, "pol-77").Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e kafka.NotificationEvent) bool {
		return e.Type == kafka.NotificationPaymentConfirmed && e.PolicyNumber == "PN-001"
	})).Return(nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.assertExpectations(t)
}

func TestReconciler_IssuanceFailureSurfaced(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(insuranceEvent("evt_2", "sess-2"), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	app := &domain.InsuranceApplication{SessionID: "sess-2", PolicyID: "pol-77"}
	f.insurance.On("MarkPaid", mock.Anything, "sess-2", mock.Anything, "", "pi_2").Return(app, nil)
	f.issuer.On("Purchase", mock.Anything, "pol-77").Return("", errors.New("provider timeout"))

	_, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.Error(t, err)
	f.insurance.AssertNotCalled(t, "SetPolicyNumber", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestReconciler_IssuerEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.verifier.On("VerifyWebhook", mock.Anything, mock.Anything).
		Return(insuranceEvent("evt_2", "sess-2"), nil)
	f.ledger.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	app := &domain.InsuranceApplication{SessionID: "sess-2", PolicyID: "pol-77"}
	f.insurance.On("MarkPaid", mock.Anything, "sess-2", mock.Anything, "", "pi_2").Return(app, nil)
	f.issuer.On("Purchase", mock.Anything, "pol-77").Return("PN-001", nil)
	f.insurance.On("SetPolicyNumber", mock.Anything, "sess-2", "PN-001").Return(nil)
	f.issuer.On("SendPolicyEmail", mock.Anything, "pol-77").Return(errors.New("smtp down"))
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	ack, err := f.r.Handle(context.Background(), []byte("{}"), "sig")

	assert.NoError(t, err)
	assert.True(t, ack.Received)
	f.assertExpectations(t)
}
