package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mydummyticket/mdt-backend/internal/domain"
)

// ErrNotFound is returned when a session id resolves to no order record.
var ErrNotFound = errors.New("record not found")

type ListQuery struct {
	Page          int
	Limit         int
	Search        string
	CreatedAfter  *time.Time
	PaymentStatus string
	OrderStatus   string
}

type Pagination struct {
	Total       int `json:"total"`
	Page        int `json:"page"`
	Limit       int `json:"limit"`
	TotalPages  int `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type TicketRepository interface {
	Upsert(ctx context.Context, ticket *domain.Ticket) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Ticket, error)
	MarkPaid(ctx context.Context, sessionID string, amount domain.Money, transactionID string) (*domain.Ticket, error)
	List(ctx context.Context, q ListQuery) ([]domain.Ticket, Pagination, error)
	UpdateOrderStatus(ctx context.Context, sessionID string, status domain.OrderStatus, handledBy string) (*domain.Ticket, error)
	Delete(ctx context.Context, sessionID string) error
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id, session_id, trip_type, passengers, email, phone_code, phone_digits, pnr,
	from_location, to_location, departure_date, return_date, quantity, message, payment_status,
	ticket_validity, delivery_immediate, delivery_date, flight_details, total_amount,
	amount_paid_currency, amount_paid_value, order_status, transaction_id, handled_by, created_at, updated_at`

func (r *PGTicketRepository) Upsert(ctx context.Context, t *domain.Ticket) error {
	passengers, err := json.Marshal(t.Passengers)
	if err != nil {
		return err
	}
	quantity, err := json.Marshal(t.Quantity)
	if err != nil {
		return err
	}

	// Payment fields are deliberately absent from the update list: a client
	// resubmitting its form must never touch payment_status or amount_paid.
	return r.db.QueryRow(ctx, `
		INSERT INTO tickets (session_id, trip_type, passengers, email, phone_code, phone_digits,
			from_location, to_location, departure_date, return_date, quantity, message,
			ticket_validity, delivery_immediate, delivery_date, flight_details, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (session_id) DO UPDATE SET
			trip_type=EXCLUDED.trip_type, passengers=EXCLUDED.passengers, email=EXCLUDED.email,
			phone_code=EXCLUDED.phone_code, phone_digits=EXCLUDED.phone_digits,
			from_location=EXCLUDED.from_location, to_location=EXCLUDED.to_location,
			departure_date=EXCLUDED.departure_date, return_date=EXCLUDED.return_date,
			quantity=EXCLUDED.quantity, message=EXCLUDED.message,
			ticket_validity=EXCLUDED.ticket_validity, delivery_immediate=EXCLUDED.delivery_immediate,
			delivery_date=EXCLUDED.delivery_date, flight_details=EXCLUDED.flight_details,
			total_amount=EXCLUDED.total_amount, updated_at=now()
		RETURNING id, payment_status, created_at, updated_at`,
		t.SessionID, t.Type, passengers, t.Email, nullable(t.PhoneNumber.Code), nullable(t.PhoneNumber.Digits),
		t.From, t.To, t.DepartureDate, nullable(t.ReturnDate), quantity, nullable(t.Message),
		t.TicketValidity, t.TicketDelivery.Immediate, nullable(t.TicketDelivery.DeliveryDate),
		rawOrNil(t.FlightDetails), t.TotalAmount).
		Scan(&t.ID, &t.PaymentStatus, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PGTicketRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE session_id=$1`, sessionID)
	return scanTicket(row)
}

// MarkPaid performs the paid transition as a single conditional update: only
// an UNPAID row matches, so concurrent deliveries converge to one outcome and
// PAID never reverts.
func (r *PGTicketRepository) MarkPaid(ctx context.Context, sessionID string, amount domain.Money, transactionID string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tickets SET payment_status=$1, amount_paid_currency=$2, amount_paid_value=$3,
			order_status=$4, transaction_id=$5, updated_at=now()
		WHERE session_id=$6 AND payment_status=$7
		RETURNING `+ticketColumns,
		domain.PaymentStatusPaid, amount.Currency, amount.Amount,
		domain.OrderStatusPending, nullable(transactionID), sessionID, domain.PaymentStatusUnpaid)
	return scanTicket(row)
}

func (r *PGTicketRepository) List(ctx context.Context, q ListQuery) ([]domain.Ticket, Pagination, error) {
	where, args := buildTicketFilter(q)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	p := paginate(q.Page, q.Limit, total)
	args = append(args, p.Limit, (p.Page-1)*p.Limit)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM tickets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, p, rows.Err()
}

func (r *PGTicketRepository) UpdateOrderStatus(ctx context.Context, sessionID string, status domain.OrderStatus, handledBy string) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tickets SET order_status=$1, handled_by=$2, updated_at=now()
		WHERE session_id=$3
		RETURNING `+ticketColumns, status, nullable(handledBy), sessionID)
	return scanTicket(row)
}

func (r *PGTicketRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE session_id=$1`, sessionID)
	return err
}

func buildTicketFilter(q ListQuery) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.PaymentStatus != "" {
		add("payment_status=$%d", q.PaymentStatus)
	}
	if q.OrderStatus != "" {
		add("order_status=$%d", q.OrderStatus)
	}
	if q.CreatedAfter != nil {
		add("created_at >= $%d", *q.CreatedAfter)
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(email ILIKE $%d OR from_location ILIKE $%d OR to_location ILIKE $%d
			OR passengers->0->>'firstName' ILIKE $%d OR passengers->0->>'lastName' ILIKE $%d
			OR passengers->0->>'title' ILIKE $%d)`, n, n, n, n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func paginate(page, limit, total int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t                                              domain.Ticket
		passengers, quantity, flightDetails            []byte
		phoneCode, phoneDigits, pnr, returnDate        *string
		message, deliveryDate, orderStatus             *string
		transactionID, handledBy, amountCur            *string
		amountVal                                      *float64
	)

	if err := row.Scan(&t.ID, &t.SessionID, &t.Type, &passengers, &t.Email, &phoneCode, &phoneDigits, &pnr,
		&t.From, &t.To, &t.DepartureDate, &returnDate, &quantity, &message, &t.PaymentStatus,
		&t.TicketValidity, &t.TicketDelivery.Immediate, &deliveryDate, &flightDetails, &t.TotalAmount,
		&amountCur, &amountVal, &orderStatus, &transactionID, &handledBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(passengers, &t.Passengers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quantity, &t.Quantity); err != nil {
		return nil, err
	}
	t.FlightDetails = flightDetails
	t.PhoneNumber.Code = deref(phoneCode)
	t.PhoneNumber.Digits = deref(phoneDigits)
	t.PNR = deref(pnr)
	t.ReturnDate = deref(returnDate)
	t.Message = deref(message)
	t.TicketDelivery.DeliveryDate = deref(deliveryDate)
	t.OrderStatus = domain.OrderStatus(deref(orderStatus))
	t.TransactionID = deref(transactionID)
	t.HandledBy = deref(handledBy)
	if amountCur != nil && amountVal != nil {
		t.AmountPaid = &domain.Money{Currency: *amountCur, Amount: *amountVal}
	}
	return &t, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

var _ TicketRepository = (*PGTicketRepository)(nil)
