/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"

	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// refusal reports whether err is an expected outcome the user can act on,
// as opposed to a storage failure.
func refusal(err error) bool {
	return errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotAuthenticated) ||
		errors.Is(err, models.ErrInsufficientBalance) ||
		errors.Is(err, models.ErrAmountOverflow)
}

func result(tx *models.Transaction, err error) (*models.LedgerResult, error) {
	if err != nil {
		if refusal(err) {
			return &models.LedgerResult{Success: false, Error: err.Error()}, nil
		}
		return nil, err
	}
	return &models.LedgerResult{Success: true, Transaction: tx, NewBalance: tx.BalanceAfter}, nil
}

// Earn credits the signed-in user
func (s *LedgerService) Earn(ctx context.Context, currency string, amount int64, source, description string) (*models.LedgerResult, error) {
	c, err := models.ParseCurrency(currency)
	if err != nil {
		zap.L().Warn("Invalid earn parameters", zap.String("currency", currency), zap.Int64("amount", amount))
		return result(nil, err)
	}
	return result(s.wallet.Credit(ctx, c, amount, source, description))
}

// Spend debits the signed-in user
func (s *LedgerService) Spend(ctx context.Context, currency string, amount int64, target, description string) (*models.LedgerResult, error) {
	c, err := models.ParseCurrency(currency)
	if err != nil {
		zap.L().Warn("Invalid spend parameters", zap.String("currency", currency), zap.Int64("amount", amount))
		return result(nil, err)
	}
	return result(s.wallet.Debit(ctx, c, amount, target, description))
}

// Convert moves amount between currencies. An empty rate uses the configured
// rate table.
func (s *LedgerService) Convert(ctx context.Context, from, to string, amount int64, rate string) (*models.LedgerResult, error) {
	fromCurrency, err := models.ParseCurrency(from)
	if err != nil {
		return result(nil, err)
	}
	toCurrency, err := models.ParseCurrency(to)
	if err != nil {
		return result(nil, err)
	}

	if rate == "" {
		return result(s.wallet.TransferAtMarket(ctx, fromCurrency, toCurrency, amount))
	}

	r, err := decimal.NewFromString(rate)
	if err != nil {
		zap.L().Warn("Invalid conversion rate", zap.String("rate", rate), zap.Error(err))
		return result(nil, &models.ValidationError{Field: "rate", Reason: "not a decimal number"})
	}
	return result(s.wallet.Transfer(ctx, fromCurrency, toCurrency, amount, r))
}
