package money

import (
	"testing"

	"github.com/zenartworks/revenue-backend/pkg/enums"
)

func TestFormatMinor(t *testing.T) {
	tests := []struct {
		amount   int64
		currency enums.Currency
		want     string
	}{
		{1999, enums.CurrencyUSD, "19.99"},
		{0, enums.CurrencyUSD, "0.00"},
		{5, enums.CurrencyEUR, "0.05"},
		{-250, enums.CurrencyTRY, "-2.50"},
		{100000, enums.CurrencyUSD, "1000.00"},
	}

	for _, tt := range tests {
		if got := FormatMinor(tt.amount, tt.currency); got != tt.want {
			t.Fatalf("FormatMinor(%d, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestFromMinorSums(t *testing.T) {
	total := FromMinor(1999, enums.CurrencyUSD).Add(FromMinor(1, enums.CurrencyUSD))
	if total.StringFixed(2) != "20.00" {
		t.Fatalf("unexpected sum %s", total)
	}
}
