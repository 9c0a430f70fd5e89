package wallet

import (
	"fmt"

	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Rates values one unit of each currency in units of the primary currency.
// The table is placeholder policy, not market data.
type Rates map[models.Currency]decimal.Decimal

func DefaultRates() Rates {
	return Rates{
		models.CurrencyInfinity: decimal.NewFromInt(1),
		models.CurrencyResearch: decimal.NewFromInt(2),
		models.CurrencyArt:      decimal.RequireFromString("1.5"),
		models.CurrencyMusic:    decimal.RequireFromString("1.25"),
	}
}

// Validate requires a positive rate for every currency and nothing else.
func (r Rates) Validate() error {
	for _, c := range models.Currencies {
		rate, ok := r[c]
		if !ok {
			return &models.ValidationError{Field: "rates", Reason: fmt.Sprintf("missing rate for %s", c)}
		}
		if !rate.IsPositive() {
			return &models.ValidationError{Field: "rates", Reason: fmt.Sprintf("rate for %s must be positive, got %s", c, rate)}
		}
	}
	for c := range r {
		if !c.Valid() {
			return &models.ValidationError{Field: "rates", Reason: fmt.Sprintf("unknown currency %q", c)}
		}
	}
	return nil
}

// Rate is the number of to units one from unit buys.
func (r Rates) Rate(from, to models.Currency) decimal.Decimal {
	return r[from].Div(r[to])
}

// Value sums every balance of w at its rate.
func (r Rates) Value(w models.Wallet) decimal.Decimal {
	total := decimal.Zero
	for _, c := range models.Currencies {
		total = total.Add(decimal.NewFromInt(w[c]).Mul(r[c]))
	}
	return total
}
