package common

import (
	"os"
	"path/filepath"
	"testing"

	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRates(t *testing.T) {
	rates, err := ParseRates([]byte(`
rates:
  infinity: "1"
  research: "3"
  art: "0.5"
  music: "1.25"
`))
	require.NoError(t, err)
	assert.True(t, rates[models.CurrencyResearch].Equal(decimal.NewFromInt(3)))
	assert.True(t, rates[models.CurrencyArt].Equal(decimal.RequireFromString("0.5")))
}

func TestParseRates_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing currency": "rates:\n  infinity: \"1\"\n",
		"unknown currency": "rates:\n  infinity: \"1\"\n  research: \"2\"\n  art: \"1\"\n  music: \"1\"\n  gold: \"9\"\n",
		"not a number":     "rates:\n  infinity: \"one\"\n  research: \"2\"\n  art: \"1\"\n  music: \"1\"\n",
		"zero rate":        "rates:\n  infinity: \"0\"\n  research: \"2\"\n  art: \"1\"\n  music: \"1\"\n",
		"malformed yaml":   "rates: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRates([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRates(t *testing.T) {
	rates, err := LoadRates(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, wallet.DefaultRates(), rates)

	path := filepath.Join(t.TempDir(), "rates.yaml")
	doc := "rates:\n  infinity: \"1\"\n  research: \"4\"\n  art: \"1\"\n  music: \"1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	rates, err = LoadRates(path)
	require.NoError(t, err)
	assert.True(t, rates[models.CurrencyResearch].Equal(decimal.NewFromInt(4)))
}
