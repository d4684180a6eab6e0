package domain

import "time"

// Airline is locally cached carrier metadata so repeated searches do not hit
// the provider's reference-data endpoint.
type Airline struct {
	IataCode     string    `json:"iataCode"`
	IcaoCode     string    `json:"icaoCode"`
	BusinessName string    `json:"businessName"`
	CommonName   string    `json:"commonName"`
	CreatedAt    time.Time `json:"-"`
}
