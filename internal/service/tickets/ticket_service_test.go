package tickets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/repository"
)

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

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func validInput() CreateTicketInput {
	return CreateTicketInput{
		Passengers:    []domain.Passenger{{Title: "Ms", FirstName: "Amina", LastName: "Khan"}},
		Email:         "pax@example.com",
		From:          "Dubai (DXB)",
		To:            "London (LHR)",
		DepartureDate: "2026-10-01",
		TotalAmount:   49,
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	s := NewTicketService(&MockTicketRepo{}, &MockGateway{}, "https://fe")

	input := validInput()
	input.Email = ""
	_, err := s.CreateRequest(context.Background(), input)
	assert.ErrorIs(t, err, ErrEmailRequired)

	input = validInput()
	input.From = ""
	_, err = s.CreateRequest(context.Background(), input)
	assert.ErrorIs(t, err, ErrRouteRequired)

	input = validInput()
	input.Passengers = nil
	_, err = s.CreateRequest(context.Background(), input)
	assert.ErrorIs(t, err, ErrNoPassengers)
}

func TestCreateRequest_Defaults(t *testing.T) {
	repo := &MockTicketRepo{}
	s := NewTicketService(repo, &MockGateway{}, "https://fe")

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(ticket *domain.Ticket) bool {
		return ticket.SessionID != "" &&
			ticket.Type == domain.TripTypeOneWay &&
			ticket.TicketValidity == "2 Days"
	})).Return(nil)

	ticket, err := s.CreateRequest(context.Background(), validInput())
	assert.NoError(t, err)
	assert.NotEmpty(t, ticket.SessionID)
	repo.AssertExpectations(t)
}

func TestCreateRequest_KeepsProvidedSession(t *testing.T) {
	repo := &MockTicketRepo{}
	s := NewTicketService(repo, &MockGateway{}, "https://fe")

	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	input := validInput()
	input.SessionID = "sess-1"
	ticket, err := s.CreateRequest(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "sess-1", ticket.SessionID)
}

func TestCreateCheckoutURL(t *testing.T) {
	repo := &MockTicketRepo{}
	gateway := &MockGateway{}
	s := NewTicketService(repo, gateway, "https://fe")

	stored := &domain.Ticket{
		SessionID:     "sess-1",
		Type:          domain.TripTypeReturn,
		Email:         "pax@example.com",
		Passengers:    []domain.Passenger{{Title: "Ms", FirstName: "Amina", LastName: "Khan"}},
		From:          "Dubai (DXB)",
		To:            "London (LHR)",
		DepartureDate: "2026-10-01",
		ReturnDate:    "2026-10-10",
		TotalAmount:   69,
	}
	repo.On("GetBySessionID", mock.Anything, "sess-1").Return(stored, nil)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(in payment.CheckoutInput) bool {
		return in.Amount == 69 &&
			in.Currency == "aed" &&
			in.Metadata["productType"] == "ticket" &&
			in.Metadata["sessionId"] == "sess-1" &&
			in.SuccessURL == "https://fe/payment-successful?sessionId=sess-1" &&
			in.IdempotencyKey == "sess-1"
	})).Return("https://checkout.example/cs_1", nil)

	url, err := s.CreateCheckoutURL(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", url)
	gateway.AssertExpectations(t)
}

func TestCreateCheckoutURL_UnknownSession(t *testing.T) {
	repo := &MockTicketRepo{}
	s := NewTicketService(repo, &MockGateway{}, "https://fe")

	repo.On("GetBySessionID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	_, err := s.CreateCheckoutURL(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestList_TranslatesFilters(t *testing.T) {
	repo := &MockTicketRepo{}
	s := NewTicketService(repo, &MockGateway{}, "https://fe")

	repo.On("List", mock.Anything, mock.MatchedBy(func(q repository.ListQuery) bool {
		return q.PaymentStatus == "PAID" && q.OrderStatus == "" && q.CreatedAfter != nil
	})).Return([]domain.Ticket{}, repository.Pagination{}, nil)

	_, _, err := s.List(context.Background(), ListInput{
		Page:          1,
		Limit:         10,
		PaymentStatus: "PAID",
		OrderStatus:   "all",
		CreatedWithin: "7_days",
	})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
