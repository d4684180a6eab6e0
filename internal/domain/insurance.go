package domain

import "time"

type JourneyType string

const (
	JourneySingle   JourneyType = "single"
	JourneyAnnual   JourneyType = "annual"
	JourneyBiennial JourneyType = "biennial"
)

type Region struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type TravellerCount struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Seniors  int `json:"seniors"`
}

type Traveller struct {
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DOB         string `json:"dob"`
	Nationality string `json:"nationality"`
	Passport    string `json:"passport"`
}

// InsuranceApplication is an insurance order record. PolicyID is assigned by
// the provider at finalize time; PolicyNumber only after a paid purchase.
type InsuranceApplication struct {
	ID              int64          `json:"-"`
	SessionID       string         `json:"sessionId"`
	JourneyType     JourneyType    `json:"journeyType"`
	StartDate       string         `json:"startDate"`
	EndDate         string         `json:"endDate"`
	Region          Region         `json:"region"`
	Quantity        TravellerCount `json:"quantity"`
	Passengers      []Traveller    `json:"passengers"`
	Email           string         `json:"email"`
	Mobile          PhoneNumber    `json:"mobile"`
	SchemeID        int64          `json:"schemeId"`
	QuoteID         int64          `json:"quoteId"`
	PolicyID        string         `json:"policyId,omitempty"`
	PolicyNumber    string         `json:"policyNumber,omitempty"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
	AmountPaid      *Money         `json:"amountPaid,omitempty"`
	TransactionID   string         `json:"transactionId,omitempty"`
	ReviewEmailSent bool           `json:"reviewEmailSent"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (a *InsuranceApplication) LeadTraveller() string {
	if len(a.Passengers) == 0 {
		return ""
	}
	return a.Passengers[0].FirstName + " " + a.Passengers[0].LastName
}

type Nationality struct {
	ID   string `json:"id"`
	Name string `json:"nationality"`
}
