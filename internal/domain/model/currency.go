package model

import "strings"

type Currency string

// DefaultBaseCurrency and DefaultTargetCurrencies mirror the board shown
// before the user makes any selection.
const DefaultBaseCurrency Currency = "GBP"

var DefaultTargetCurrencies = []Currency{"USD", "EUR", "JPY", "CHF", "CAD", "AUD", "ZAR"}

const (
	MinTargetCurrencies = 3
	MaxTargetCurrencies = 7
)

// IsValid checks shape only: exactly three ASCII letters. Whether the code is
// actually published by the rates API is discovered lazily per snapshot; an
// unknown code yields N/A cells, never an error.
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// Normalize returns the display form, uppercase.
func (c Currency) Normalize() Currency {
	return Currency(strings.ToUpper(string(c)))
}

// Lower returns the form the rates API addresses currencies by.
func (c Currency) Lower() string {
	return strings.ToLower(string(c))
}

func (c Currency) String() string {
	return string(c)
}

// ParseCurrencyList splits a comma-separated list into normalized currencies,
// dropping empty segments.
func ParseCurrencyList(raw string) []Currency {
	parts := strings.Split(raw, ",")
	currencies := make([]Currency, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		currencies = append(currencies, Currency(trimmed).Normalize())
	}

	return currencies
}
