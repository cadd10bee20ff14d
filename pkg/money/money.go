package money

import (
	"github.com/shopspring/decimal"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

// minor currency unit exponents; every supported currency uses two today.
var exponents = map[enums.Currency]int32{
	enums.CurrencyUSD: 2,
	enums.CurrencyEUR: 2,
	enums.CurrencyTRY: 2,
}

const defaultExponent = 2

// Exponent returns the minor-unit exponent for the currency.
func Exponent(currency enums.Currency) int32 {
	if exp, ok := exponents[currency]; ok {
		return exp
	}
	return defaultExponent
}

// FromMinor converts integer minor units into a decimal major amount.
func FromMinor(amount int64, currency enums.Currency) decimal.Decimal {
	return decimal.New(amount, -Exponent(currency))
}

// FormatMinor renders minor units as a fixed-point major amount string,
// e.g. 1999 USD -> "19.99".
func FormatMinor(amount int64, currency enums.Currency) string {
	return FromMinor(amount, currency).StringFixed(Exponent(currency))
}
