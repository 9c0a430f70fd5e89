package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type RatesConfig struct {
	Rates map[string]string `yaml:"rates"`
}

// LoadRates reads the exchange-rate table. A missing file yields the default table.
func LoadRates(ratesFile string) (wallet.Rates, error) {
	var ratesPath string
	if filepath.IsAbs(ratesFile) {
		ratesPath = ratesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		ratesPath = filepath.Join(wd, ratesFile)
	}

	data, err := os.ReadFile(ratesPath)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Info("No rates file found, using default rates", zap.String("file", ratesPath))
		return wallet.DefaultRates(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", ratesFile, err)
	}

	return ParseRates(data)
}

func ParseRates(data []byte) (wallet.Rates, error) {
	var config RatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse rates: %w", err)
	}

	rates := make(wallet.Rates, len(config.Rates))
	for code, value := range config.Rates {
		currency, err := models.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("rate for %s is not a decimal: %q", code, value)
		}
		rates[currency] = rate
	}

	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return rates, nil
}
