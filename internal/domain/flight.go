package domain

// Flight-offer shapes mirror the provider's search response closely; only the
// fields the frontend renders are kept, plus locally attached airline
// metadata.

type FlightEndpoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type AircraftCode struct {
	Code string `json:"code"`
}

type FlightSegment struct {
	Departure     FlightEndpoint `json:"departure"`
	Arrival       FlightEndpoint `json:"arrival"`
	CarrierCode   string         `json:"carrierCode"`
	Number        string         `json:"number"`
	Aircraft      AircraftCode   `json:"aircraft"`
	Duration      string         `json:"duration"`
	AirlineDetail *Airline       `json:"airlineDetail,omitempty"`
}

type Itinerary struct {
	Duration string          `json:"duration"`
	Segments []FlightSegment `json:"segments"`
}

type OfferPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	GrandTotal string `json:"grandTotal,omitempty"`
}

type FlightOffer struct {
	ID                     string      `json:"id"`
	Itineraries            []Itinerary `json:"itineraries"`
	Price                  OfferPrice  `json:"price"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
	AirlineDetails         []Airline   `json:"airlineDetails,omitempty"`
}

// SearchCriteria is a flight-offers search request.
type SearchCriteria struct {
	Type          TripType `json:"type"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	DepartureDate string   `json:"departureDate"`
	ReturnDate    string   `json:"returnDate,omitempty"`
}
