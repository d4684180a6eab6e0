package domain

import (
	"math"
	"strings"
)

// Money is an amount actually charged by the payment gateway. It is set
// exactly once, when an order transitions to PAID.
type Money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// MoneyFromMinorUnits converts a gateway minor-unit total (e.g. fils, cents)
// into a decimal amount rounded to two places, with the currency upper-cased.
func MoneyFromMinorUnits(currency string, total int64) Money {
	if currency == "" {
		currency = "aed"
	}
	return Money{
		Currency: strings.ToUpper(currency),
		Amount:   math.Round(float64(total)) / 100,
	}
}

func leadName(passengers []Passenger) string {
	if len(passengers) == 0 {
		return ""
	}
	p := passengers[0]
	return strings.TrimSpace(strings.Join([]string{p.Title, p.FirstName, p.LastName}, " "))
}
