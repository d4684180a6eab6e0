package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyFromMinorUnits(t *testing.T) {
	assert.Equal(t, Money{Currency: "AED", Amount: 500}, MoneyFromMinorUnits("aed", 50000))
	assert.Equal(t, Money{Currency: "USD", Amount: 125.5}, MoneyFromMinorUnits("usd", 12550))
	assert.Equal(t, Money{Currency: "AED", Amount: 0.01}, MoneyFromMinorUnits("AED", 1))
}

func TestMoneyFromMinorUnits_DefaultCurrency(t *testing.T) {
	assert.Equal(t, Money{Currency: "AED", Amount: 10}, MoneyFromMinorUnits("", 1000))
}
