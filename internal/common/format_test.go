package common

import (
	"testing"

	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,250 RSC", FormatAmount(1250, models.CurrencyResearch))
	assert.Equal(t, "0 INF", FormatAmount(0, models.CurrencyInfinity))
	assert.Equal(t, "-40 MUS", FormatAmount(-40, models.CurrencyMusic))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "120.50 INF", FormatValue(decimal.RequireFromString("120.5")))
}
