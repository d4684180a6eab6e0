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

type InsuranceRepository interface {
	Create(ctx context.Context, app *domain.InsuranceApplication) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.InsuranceApplication, error)
	MarkPaid(ctx context.Context, sessionID string, amount domain.Money, policyNumber, transactionID string) (*domain.InsuranceApplication, error)
	SetPolicyNumber(ctx context.Context, sessionID, policyNumber string) error
	List(ctx context.Context, q ListQuery) ([]domain.InsuranceApplication, Pagination, error)
	Delete(ctx context.Context, sessionID string) error
	ListNeedingReviewEmail(ctx context.Context, paidBefore time.Time, limit int) ([]domain.InsuranceApplication, error)
	MarkReviewEmailSent(ctx context.Context, sessionID string) (bool, error)
}

type PGInsuranceRepository struct {
	db *pgxpool.Pool
}

func NewInsuranceRepository(db *pgxpool.Pool) InsuranceRepository {
	return &PGInsuranceRepository{db: db}
}

const insuranceColumns = `id, session_id, journey_type, start_date, end_date, region, quantity, passengers,
	email, mobile_code, mobile_digits, scheme_id, quote_id, policy_id, policy_number, payment_status,
	amount_paid_currency, amount_paid_value, transaction_id, review_email_sent, created_at, updated_at`

func (r *PGInsuranceRepository) Create(ctx context.Context, a *domain.InsuranceApplication) error {
	region, err := json.Marshal(a.Region)
	if err != nil {
		return err
	}
	quantity, err := json.Marshal(a.Quantity)
	if err != nil {
		return err
	}
	passengers, err := json.Marshal(a.Passengers)
	if err != nil {
		return err
	}

	a.PaymentStatus = domain.PaymentStatusUnpaid
	return r.db.QueryRow(ctx, `
		INSERT INTO insurance_applications (session_id, journey_type, start_date, end_date, region,
			quantity, passengers, email, mobile_code, mobile_digits, scheme_id, quote_id, policy_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`,
		a.SessionID, a.JourneyType, a.StartDate, a.EndDate, region, quantity, passengers,
		a.Email, nullable(a.Mobile.Code), nullable(a.Mobile.Digits), a.SchemeID, a.QuoteID, nullable(a.PolicyID)).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PGInsuranceRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.InsuranceApplication, error) {
	row := r.db.QueryRow(ctx, `SELECT `+insuranceColumns+` FROM insurance_applications WHERE session_id=$1`, sessionID)
	return scanInsurance(row)
}

// MarkPaid mirrors the ticket transition: conditional on UNPAID so redelivered
// events cannot overwrite the recorded charge or the policy number.
func (r *PGInsuranceRepository) MarkPaid(ctx context.Context, sessionID string, amount domain.Money, policyNumber, transactionID string) (*domain.InsuranceApplication, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE insurance_applications SET payment_status=$1, amount_paid_currency=$2, amount_paid_value=$3,
			policy_number=$4, transaction_id=$5, updated_at=now()
		WHERE session_id=$6 AND payment_status=$7
		RETURNING `+insuranceColumns,
		domain.PaymentStatusPaid, amount.Currency, amount.Amount,
		nullable(policyNumber), nullable(transactionID), sessionID, domain.PaymentStatusUnpaid)
	return scanInsurance(row)
}

func (r *PGInsuranceRepository) SetPolicyNumber(ctx context.Context, sessionID, policyNumber string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE insurance_applications SET policy_number=$1, updated_at=now()
		WHERE session_id=$2`, policyNumber, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGInsuranceRepository) List(ctx context.Context, q ListQuery) ([]domain.InsuranceApplication, Pagination, error) {
	where, args := buildInsuranceFilter(q)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM insurance_applications`+where, args...).Scan(&total); err != nil {
		return nil, Pagination{}, err
	}

	p := paginate(q.Page, q.Limit, total)
	args = append(args, p.Limit, (p.Page-1)*p.Limit)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM insurance_applications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		insuranceColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer rows.Close()

	apps := make([]domain.InsuranceApplication, 0)
	for rows.Next() {
		a, err := scanInsurance(rows)
		if err != nil {
			return nil, Pagination{}, err
		}
		apps = append(apps, *a)
	}
	return apps, p, rows.Err()
}

func (r *PGInsuranceRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM insurance_applications WHERE session_id=$1`, sessionID)
	return err
}

func (r *PGInsuranceRepository) ListNeedingReviewEmail(ctx context.Context, paidBefore time.Time, limit int) ([]domain.InsuranceApplication, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+insuranceColumns+` FROM insurance_applications
		WHERE payment_status=$1 AND review_email_sent=FALSE AND updated_at <= $2
		ORDER BY updated_at LIMIT $3`,
		domain.PaymentStatusPaid, paidBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.InsuranceApplication
	for rows.Next() {
		a, err := scanInsurance(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// MarkReviewEmailSent flips the flag before the email goes out; the false
// return tells a racing sweep that another worker already claimed the row.
func (r *PGInsuranceRepository) MarkReviewEmailSent(ctx context.Context, sessionID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE insurance_applications SET review_email_sent=TRUE, updated_at=now()
		WHERE session_id=$1 AND review_email_sent=FALSE`, sessionID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func buildInsuranceFilter(q ListQuery) (string, []any) {
	var conds []string
	var args []any

	if q.PaymentStatus != "" {
		args = append(args, q.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status=$%d", len(args)))
	}
	if q.CreatedAfter != nil {
		args = append(args, *q.CreatedAfter)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(email ILIKE $%d OR policy_number ILIKE $%d
			OR passengers->0->>'firstName' ILIKE $%d OR passengers->0->>'lastName' ILIKE $%d)`, n, n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanInsurance(row pgx.Row) (*domain.InsuranceApplication, error) {
	var (
		a                              domain.InsuranceApplication
		region, quantity, passengers   []byte
		mobileCode, mobileDigits       *string
		schemeID, quoteID              *int64
		policyID, policyNumber         *string
		amountCur, transactionID       *string
		amountVal                      *float64
	)

	if err := row.Scan(&a.ID, &a.SessionID, &a.JourneyType, &a.StartDate, &a.EndDate, &region, &quantity,
		&passengers, &a.Email, &mobileCode, &mobileDigits, &schemeID, &quoteID, &policyID, &policyNumber,
		&a.PaymentStatus, &amountCur, &amountVal, &transactionID, &a.ReviewEmailSent, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(region, &a.Region); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quantity, &a.Quantity); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(passengers, &a.Passengers); err != nil {
		return nil, err
	}
	a.Mobile.Code = deref(mobileCode)
	a.Mobile.Digits = deref(mobileDigits)
	if schemeID != nil {
		a.SchemeID = *schemeID
	}
	if quoteID != nil {
		a.QuoteID = *quoteID
	}
	a.PolicyID = deref(policyID)
	a.PolicyNumber = deref(policyNumber)
	a.TransactionID = deref(transactionID)
	if amountCur != nil && amountVal != nil {
		a.AmountPaid = &domain.Money{Currency: *amountCur, Amount: *amountVal}
	}
	return &a, nil
}

var _ InsuranceRepository = (*PGInsuranceRepository)(nil)
