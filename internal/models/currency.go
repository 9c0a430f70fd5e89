package models

import "fmt"

// Currency is a member of the closed set of token currencies.
type Currency string

const (
	CurrencyInfinity Currency = "infinity"
	CurrencyResearch Currency = "research"
	CurrencyArt      Currency = "art"
	CurrencyMusic    Currency = "music"
)

// PrimaryCurrency receives the welcome bonus and is the base of the rate table.
const PrimaryCurrency = CurrencyInfinity

// Currencies lists every currency in display order.
var Currencies = []Currency{CurrencyInfinity, CurrencyResearch, CurrencyArt, CurrencyMusic}

func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

func (c Currency) String() string { return string(c) }

// ParseCurrency validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if !c.Valid() {
		return "", &ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", code)}
	}
	return c, nil
}
