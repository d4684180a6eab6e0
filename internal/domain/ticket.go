package domain

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusProgress  OrderStatus = "PROGRESS"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

type TripType string

const (
	TripTypeOneWay TripType = "One Way"
	TripTypeReturn TripType = "Return"
)

type Passenger struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type PhoneNumber struct {
	Code   string `json:"code"`
	Digits string `json:"digits"`
}

type PassengerCount struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// TicketDelivery controls when the reservation document is sent out.
// A non-immediate delivery produces an extra customer notice at payment time.
type TicketDelivery struct {
	Immediate    bool   `json:"immediate"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
}

// Ticket is a dummy-ticket order record. SessionID is the client-generated
// correlation key and is immutable once the record exists.
type Ticket struct {
	ID             int64           `json:"-"`
	SessionID      string          `json:"sessionId"`
	Type           TripType        `json:"type"`
	Passengers     []Passenger     `json:"passengers"`
	Email          string          `json:"email"`
	PhoneNumber    PhoneNumber     `json:"phoneNumber"`
	PNR            string          `json:"pnr,omitempty"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	DepartureDate  string          `json:"departureDate"`
	ReturnDate     string          `json:"returnDate,omitempty"`
	Quantity       PassengerCount  `json:"quantity"`
	Message        string          `json:"message,omitempty"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	TicketValidity string          `json:"ticketValidity"`
	TicketDelivery TicketDelivery  `json:"ticketDelivery"`
	FlightDetails  json.RawMessage `json:"flightDetails,omitempty"`
	TotalAmount    float64         `json:"totalAmount"`
	AmountPaid     *Money          `json:"amountPaid,omitempty"`
	OrderStatus    OrderStatus     `json:"orderStatus,omitempty"`
	TransactionID  string          `json:"transactionId,omitempty"`
	HandledBy      string          `json:"handledBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// LeadPassenger returns "<title> <first> <last>" of the first passenger.
func (t *Ticket) LeadPassenger() string {
	return leadName(t.Passengers)
}
