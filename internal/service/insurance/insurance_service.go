package insurance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/payment"
	"github.com/mydummyticket/mdt-backend/internal/repository"
	"github.com/mydummyticket/mdt-backend/internal/wis"
)

var (
	ErrStartDateMissing = errors.New("start date is missing")
	ErrEndDateMissing   = errors.New("end date is missing")
	ErrRegionMissing    = errors.New("region is missing")
	ErrNoTravellers     = errors.New("please select at least 1 adult, child, or senior")
	ErrQuoteIDMissing   = errors.New("quote id missing")
	ErrSchemeIDMissing  = errors.New("scheme id missing")
	ErrEmailMissing     = errors.New("email address not entered")
	ErrMobileMissing    = errors.New("phone number missing")
	ErrDocumentNotFound = errors.New("policy document not found")
	ErrTravellerInvalid = errors.New("traveller details incomplete")
)

type QuoteForm struct {
	JourneyType domain.JourneyType    `json:"journeyType"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	Region      string                `json:"region"`
	Quantity    domain.TravellerCount `json:"quantity"`
}

type FormTraveller struct {
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	DOB         string             `json:"dob"`
	Nationality domain.Nationality `json:"nationality"`
	Passport    string             `json:"passport"`
}

type ApplicationForm struct {
	QuoteID     int64                 `json:"quoteId"`
	SchemeID    int64                 `json:"schemeId"`
	JourneyType domain.JourneyType    `json:"journeyType"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	Region      domain.Region         `json:"region"`
	Quantity    domain.TravellerCount `json:"quantity"`
	Passengers  []FormTraveller       `json:"passengers"`
	Email       string                `json:"email"`
	Mobile      domain.PhoneNumber    `json:"mobile"`
}

type FinalizeOutput struct {
	SessionID  string  `json:"sessionId"`
	PolicyID   string  `json:"policyId"`
	Premium    float64 `json:"premium"`
	Currency   string  `json:"currency"`
	PaymentURL string  `json:"paymentUrl"`
}

type ListInput struct {
	Page          int
	Limit         int
	Search        string
	CreatedWithin string
	PaymentStatus string
}

type InsuranceUseCase interface {
	GetQuotes(ctx context.Context, form QuoteForm) (*wis.QuoteResult, error)
	Finalize(ctx context.Context, form ApplicationForm) (*FinalizeOutput, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.InsuranceApplication, error)
	List(ctx context.Context, input ListInput) ([]domain.InsuranceApplication, repository.Pagination, error)
	Delete(ctx context.Context, sessionID string) error
	Nationalities(ctx context.Context) ([]domain.Nationality, error)
	RefreshNationalities(ctx context.Context) ([]domain.Nationality, error)
	DownloadDocument(ctx context.Context, policyID string, index int) (string, error)
}

type Provider interface {
	Nationalities(ctx context.Context) (map[string]string, error)
	Quotes(ctx context.Context, req wis.QuoteRequest) (*wis.QuoteResult, error)
	Finalize(ctx context.Context, req wis.FinalizeRequest) (*wis.FinalizeResult, error)
	Documents(ctx context.Context, policyID string) ([]wis.PolicyDocument, error)
}

type NationalityCache interface {
	GetNationalities(ctx context.Context) ([]domain.Nationality, error)
	SetNationalities(ctx context.Context, nationalities []domain.Nationality) error
}

type InsuranceService struct {
	apps        repository.InsuranceRepository
	provider    Provider
	gateway     payment.Gateway
	cache       NationalityCache
	frontendURL string
}

func NewInsuranceService(
	apps repository.InsuranceRepository,
	provider Provider,
	gateway payment.Gateway,
	cache NationalityCache,
	frontendURL string,
) *InsuranceService {
	return &InsuranceService{apps: apps, provider: provider, gateway: gateway, cache: cache, frontendURL: frontendURL}
}

func (s *InsuranceService) GetQuotes(ctx context.Context, form QuoteForm) (*wis.QuoteResult, error) {
	if err := validateQuoteForm(form); err != nil {
		return nil, err
	}
	return s.provider.Quotes(ctx, formatQuoteForm(form))
}

// Finalize turns an application form into a provisional policy: the provider
// assigns a policy id and the authoritative premium, the application record
// is stored UNPAID, and the customer gets a hosted-checkout URL.
func (s *InsuranceService) Finalize(ctx context.Context, form ApplicationForm) (*FinalizeOutput, error) {
	if err := validateApplicationForm(form); err != nil {
		return nil, err
	}

	result, err := s.provider.Finalize(ctx, formatApplicationForm(form))
	if err != nil {
		return nil, err
	}

	app := &domain.InsuranceApplication{
		SessionID:   uuid.NewString(),
		JourneyType: form.JourneyType,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		Region:      form.Region,
		Quantity:    form.Quantity,
		Passengers:  storedTravellers(form.Passengers),
		Email:       form.Email,
		Mobile:      form.Mobile,
		SchemeID:    form.SchemeID,
		QuoteID:     form.QuoteID,
		PolicyID:    result.PolicyID,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	currency := strings.ToLower(result.Currency)
	if currency == "" {
		currency = "aed"
	}
	leadTraveller := app.LeadTraveller()

	url, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutInput{
		Amount:        result.Premium,
		Currency:      currency,
		ProductName:   "Travel Insurance",
		CustomerEmail: form.Email,
		SuccessURL:    s.frontendURL + "/travel-insurance/payment?sessionId=" + app.SessionID,
		CancelURL:     s.frontendURL + "/travel-insurance/passenger-details",
		Metadata: map[string]string{
			"productType":  string(domain.ProductInsurance),
			"entity":       "TRAVEL_INSURANCE",
			"journeyType":  string(form.JourneyType),
			"startDate":    form.StartDate,
			"endDate":      form.EndDate,
			"region":       form.Region.ID,
			"sessionId":    app.SessionID,
			"mobile":       form.Mobile.Code + "-" + form.Mobile.Digits,
			"policyId":     result.PolicyID,
			"quoteId":      fmt.Sprint(form.QuoteID),
			"leadTraveler": leadTraveller,
		},
		IdempotencyKey: app.SessionID,
	})
	if err != nil {
		return nil, err
	}

	return &FinalizeOutput{
		SessionID:  app.SessionID,
		PolicyID:   result.PolicyID,
		Premium:    result.Premium,
		Currency:   currency,
		PaymentURL: url,
	}, nil
}

func (s *InsuranceService) GetBySessionID(ctx context.Context, sessionID string) (*domain.InsuranceApplication, error) {
	return s.apps.GetBySessionID(ctx, sessionID)
}

func (s *InsuranceService) List(ctx context.Context, input ListInput) ([]domain.InsuranceApplication, repository.Pagination, error) {
	q := repository.ListQuery{
		Page:   input.Page,
		Limit:  input.Limit,
		Search: input.Search,
	}
	if input.PaymentStatus != "" && input.PaymentStatus != "all" {
		q.PaymentStatus = input.PaymentStatus
	}
	if d, ok := createdWindows[input.CreatedWithin]; ok {
		after := time.Now().Add(-d)
		q.CreatedAfter = &after
	}
	return s.apps.List(ctx, q)
}

func (s *InsuranceService) Delete(ctx context.Context, sessionID string) error {
	return s.apps.Delete(ctx, sessionID)
}

func (s *InsuranceService) Nationalities(ctx context.Context) ([]domain.Nationality, error) {
	if s.cache != nil {
		cached, err := s.cache.GetNationalities(ctx)
		if err != nil {
			log.Printf("nationality cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.RefreshNationalities(ctx)
}

func (s *InsuranceService) RefreshNationalities(ctx context.Context) ([]domain.Nationality, error) {
	raw, err := s.provider.Nationalities(ctx)
	if err != nil {
		return nil, err
	}

	nationalities := make([]domain.Nationality, 0, len(raw))
	for id, name := range raw {
		nationalities = append(nationalities, domain.Nationality{ID: id, Name: name})
	}

	if s.cache != nil {
		if err := s.cache.SetNationalities(ctx, nationalities); err != nil {
			log.Printf("nationality cache write failed: %v", err)
		}
	}
	return nationalities, nil
}

func (s *InsuranceService) DownloadDocument(ctx context.Context, policyID string, index int) (string, error) {
	docs, err := s.provider.Documents(ctx, policyID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(docs) {
		return "", ErrDocumentNotFound
	}
	return docs[index].URL, nil
}

func validateQuoteForm(form QuoteForm) error {
	if form.StartDate == "" {
		return ErrStartDateMissing
	}
	if form.EndDate == "" {
		return ErrEndDateMissing
	}
	if form.Region == "" {
		return ErrRegionMissing
	}
	if form.Quantity.Adults+form.Quantity.Children+form.Quantity.Seniors == 0 {
		return ErrNoTravellers
	}
	return nil
}

// formatQuoteForm applies the provider's family/group banding rules: a single
// traveller quotes as an individual, two adults with up to four children as a
// family, anything else as a group.
func formatQuoteForm(form QuoteForm) wis.QuoteRequest {
	req := wis.QuoteRequest{
		JourneyID: string(form.JourneyType),
		StartDate: form.StartDate,
		EndDate:   form.EndDate,
		Region:    form.Region,
		AgeBands: wis.AgeBands{
			Adults:   form.Quantity.Adults,
			Children: form.Quantity.Children,
			Seniors:  form.Quantity.Seniors,
		},
	}

	total := form.Quantity.Adults + form.Quantity.Children + form.Quantity.Seniors
	switch {
	case total == 1:
		req.Family, req.Group = 1, 1
	case form.Quantity.Adults == 2 && form.Quantity.Children > 0 && form.Quantity.Children <= 4 && form.Quantity.Seniors == 0:
		req.Family, req.Group = 2, 1
	default:
		req.Family, req.Group = 1, 2
	}
	return req
}

func validateApplicationForm(form ApplicationForm) error {
	if form.QuoteID == 0 {
		return ErrQuoteIDMissing
	}
	if form.SchemeID == 0 {
		return ErrSchemeIDMissing
	}
	if form.Email == "" {
		return ErrEmailMissing
	}
	if form.Mobile.Digits == "" {
		return ErrMobileMissing
	}
	for _, pax := range form.Passengers {
		if pax.FirstName == "" || pax.LastName == "" || pax.Nationality.ID == "" || pax.DOB == "" || pax.Passport == "" {
			return ErrTravellerInvalid
		}
	}
	return nil
}

// formatApplicationForm reshapes the form into the provider's parallel-array
// layout, with the first passenger doubling as the customer of record.
func formatApplicationForm(form ApplicationForm) wis.FinalizeRequest {
	req := wis.FinalizeRequest{
		QuoteID:  form.QuoteID,
		SchemeID: form.SchemeID,
		Email:    form.Email,
		Mobile:   form.Mobile.Code + form.Mobile.Digits,
	}
	if len(form.Passengers) > 0 {
		req.TitleCustomer = form.Passengers[0].Title
		req.FirstNameCustomer = form.Passengers[0].FirstName
		req.LastNameCustomer = form.Passengers[0].LastName
	}
	for _, pax := range form.Passengers {
		req.TitleTraveller = append(req.TitleTraveller, pax.Title)
		req.FirstNameTraveller = append(req.FirstNameTraveller, pax.FirstName)
		req.LastNameTraveller = append(req.LastNameTraveller, pax.LastName)
		req.DOB = append(req.DOB, pax.DOB)
		req.PassportNumber = append(req.PassportNumber, pax.Passport)
		req.NationalityTraveller = append(req.NationalityTraveller, pax.Nationality.ID)
	}
	return req
}

func storedTravellers(form []FormTraveller) []domain.Traveller {
	out := make([]domain.Traveller, 0, len(form))
	for _, pax := range form {
		out = append(out, domain.Traveller{
			Type:        pax.Type,
			Title:       pax.Title,
			FirstName:   pax.FirstName,
			LastName:    pax.LastName,
			DOB:         pax.DOB,
			Nationality: pax.Nationality.Name,
			Passport:    pax.Passport,
		})
	}
	return out
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

var _ InsuranceUseCase = (*InsuranceService)(nil)
