package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/repository"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrRouteRequired = errors.New("from, to and departure date are required")
	ErrNoPassengers  = errors.New("at least one passenger is required")
)

type CreateTicketInput struct {
	SessionID      string                `json:"sessionId"`
	Type           domain.TripType       `json:"type"`
	Passengers     []domain.Passenger    `json:"passengers"`
	Email          string                `json:"email"`
	PhoneNumber    domain.PhoneNumber    `json:"phoneNumber"`
	From           string                `json:"from"`
	To             string                `json:"to"`
	DepartureDate  string                `json:"departureDate"`
	ReturnDate     string                `json:"returnDate"`
	Quantity       domain.PassengerCount `json:"quantity"`
	Message        string                `json:"message"`
	TicketValidity string                `json:"ticketValidity"`
	TicketDelivery domain.TicketDelivery `json:"ticketDelivery"`
	FlightDetails  json.RawMessage       `json:"flightDetails"`
	TotalAmount    float64               `json:"totalAmount"`
}

type ListInput struct {
	Page          int
	Limit         int
	Search        string
	CreatedWithin string
	PaymentStatus string
	OrderStatus   string
}

type TicketUseCase interface {
	CreateRequest(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error)
	CreateCheckoutURL(ctx context.Context, sessionID string) (string, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Ticket, error)
	List(ctx context.Context, input ListInput) ([]domain.Ticket, repository.Pagination, error)
	UpdateOrderStatus(ctx context.Context, sessionID string, status domain.OrderStatus, handledBy string) (*domain.Ticket, error)
	Delete(ctx context.Context, sessionID string) error
}

type TicketService struct {
	tickets     repository.TicketRepository
	gateway     payment.Gateway
	frontendURL string
}

func NewTicketService(tickets repository.TicketRepository, gateway payment.Gateway, frontendURL string) *TicketService {
	return &TicketService{tickets: tickets, gateway: gateway, frontendURL: frontendURL}
}

// CreateRequest creates or updates the order record for the client's session.
// Resubmitting the form replaces the itinerary and passenger data; payment
// fields are never touched here.
func (s *TicketService) CreateRequest(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if input.Email == "" {
		return nil, ErrEmailRequired
	}
	if input.From == "" || input.To == "" || input.DepartureDate == "" {
		return nil, ErrRouteRequired
	}
	if len(input.Passengers) == 0 {
		return nil, ErrNoPassengers
	}

	if input.SessionID == "" {
		input.SessionID = uuid.NewString()
	}
	if input.Type == "" {
		input.Type = domain.TripTypeOneWay
	}
	if input.TicketValidity == "" {
		input.TicketValidity = "2 Days"
	}

	ticket := &domain.Ticket{
		SessionID:      input.SessionID,
		Type:           input.Type,
		Passengers:     input.Passengers,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		From:           input.From,
		To:             input.To,
		DepartureDate:  input.DepartureDate,
		ReturnDate:     input.ReturnDate,
		Quantity:       input.Quantity,
		Message:        input.Message,
		TicketValidity: input.TicketValidity,
		TicketDelivery: input.TicketDelivery,
		FlightDetails:  input.FlightDetails,
		TotalAmount:    input.TotalAmount,
	}
	if err := s.tickets.Upsert(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CreateCheckoutURL builds a hosted-checkout request from the stored order.
// The total comes from the record, not the request body, and the metadata bag
// carries the two fields the webhook reads back: productType and sessionId.
func (s *TicketService) CreateCheckoutURL(ctx context.Context, sessionID string) (string, error) {
	ticket, err := s.tickets.GetBySessionID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	return s.gateway.CreateCheckoutSession(ctx, payment.CheckoutInput{
		Amount:        ticket.TotalAmount,
		Currency:      "aed",
		ProductName:   fmt.Sprintf("%s Flight Reservation", ticket.Type),
		CustomerEmail: ticket.Email,
		SuccessURL:    s.frontendURL + "/payment-successful?sessionId=" + sessionID,
		CancelURL:     s.frontendURL + "/booking/review-details",
		Metadata: map[string]string{
			"productType":   string(domain.ProductTicket),
			"entity":        "DUMMY_TICKET",
			"customer":      ticket.LeadPassenger(),
			"sessionId":     sessionID,
			"from":          ticket.From,
			"to":            ticket.To,
			"departureDate": ticket.DepartureDate,
			"returnDate":    ticket.ReturnDate,
		},
		IdempotencyKey: sessionID,
	})
}

func (s *TicketService) GetBySessionID(ctx context.Context, sessionID string) (*domain.Ticket, error) {
	return s.tickets.GetBySessionID(ctx, sessionID)
}

func (s *TicketService) List(ctx context.Context, input ListInput) ([]domain.Ticket, repository.Pagination, error) {
	q := repository.ListQuery{
		Page:          input.Page,
		Limit:         input.Limit,
		Search:        input.Search,
		PaymentStatus: filterValue(input.PaymentStatus),
		OrderStatus:   filterValue(input.OrderStatus),
	}
	if after, ok := createdWindow(input.CreatedWithin); ok {
		q.CreatedAfter = &after
	}
	return s.tickets.List(ctx, q)
}

func (s *TicketService) UpdateOrderStatus(ctx context.Context, sessionID string, status domain.OrderStatus, handledBy string) (*domain.Ticket, error) {
	return s.tickets.UpdateOrderStatus(ctx, sessionID, status, handledBy)
}

func (s *TicketService) Delete(ctx context.Context, sessionID string) error {
	return s.tickets.Delete(ctx, sessionID)
}

var createdWindows = map[string]time.Duration{
	"6_hours":  6 * time.Hour,
	"12_hours": 12 * time.Hour,
	"24_hours": 24 * time.Hour,
	"7_days":   7 * 24 * time.Hour,
	"14_days":  14 * 24 * time.Hour,
	"30_days":  30 * 24 * time.Hour,
	"90_days":  90 * 24 * time.Hour,
}

func createdWindow(key string) (time.Time, bool) {
	d, ok := createdWindows[key]
	if !ok {
		return time.Time{}, false
	}
	return time.Now().Add(-d), true
}

func filterValue(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

var _ TicketUseCase = (*TicketService)(nil)
