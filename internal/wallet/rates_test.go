package wallet

import (
	"testing"

	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRates_Validate(t *testing.T) {
	require.NoError(t, DefaultRates().Validate())

	missing := DefaultRates()
	delete(missing, models.CurrencyMusic)
	require.ErrorIs(t, missing.Validate(), models.ErrValidation)

	zero := DefaultRates()
	zero[models.CurrencyArt] = decimal.Zero
	require.ErrorIs(t, zero.Validate(), models.ErrValidation)

	unknown := DefaultRates()
	unknown[models.Currency("gold")] = decimal.NewFromInt(9)
	require.ErrorIs(t, unknown.Validate(), models.ErrValidation)
}

func TestRates_RateAndValue(t *testing.T) {
	rates := DefaultRates()

	assert.True(t, rates.Rate(models.CurrencyResearch, models.CurrencyInfinity).Equal(decimal.NewFromInt(2)))
	assert.True(t, rates.Rate(models.CurrencyInfinity, models.CurrencyResearch).Equal(decimal.RequireFromString("0.5")))

	w := models.NewWallet()
	w[models.CurrencyResearch] = 3
	assert.True(t, rates.Value(w).Equal(decimal.NewFromInt(6)))
}
