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
	"fmt"

	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Balances returns every balance of the signed-in user in display order
func (s *LedgerService) Balances(ctx context.Context) (*models.BalanceReport, error) {
	account, err := s.auth.CurrentUser(ctx)
	if err != nil {
		zap.L().Error("Failed to resolve current user", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balances")
	}
	if account == nil {
		return nil, models.ErrNotAuthenticated
	}

	rates := s.wallet.Rates()
	report := &models.BalanceReport{
		Username:   account.Username,
		Balances:   make([]models.UserBalance, 0, len(models.Currencies)),
		TotalValue: decimal.Zero,
	}
	for _, c := range models.Currencies {
		value := decimal.NewFromInt(account.Wallet[c]).Mul(rates[c])
		report.Balances = append(report.Balances, models.UserBalance{
			Currency: c,
			Balance:  account.Wallet[c],
			Value:    value,
		})
		report.TotalValue = report.TotalValue.Add(value)
	}

	return report, nil
}

// History returns the signed-in user's transactions, newest first. currency
// may be empty for all currencies.
func (s *LedgerService) History(ctx context.Context, currency string, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	ok, err := s.auth.IsAuthenticated(ctx)
	if err != nil {
		zap.L().Error("Failed to resolve current user", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history")
	}
	if !ok {
		return nil, models.ErrNotAuthenticated
	}

	var transactions []models.Transaction
	if currency == "" {
		transactions, err = s.wallet.TransactionHistory(ctx, limit)
	} else {
		c, perr := models.ParseCurrency(currency)
		if perr != nil {
			return nil, perr
		}
		transactions, err = s.wallet.TransactionHistoryFor(ctx, c, limit)
	}
	if err != nil {
		zap.L().Error("Failed to get transaction history",
			zap.String("currency", currency),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history")
	}

	result := make([]models.TransactionRecord, 0, len(transactions))
	for _, tx := range transactions {
		result = append(result, toRecords(tx, currency)...)
	}
	return result, nil
}

// toRecords flattens a transaction into signed history rows. A transfer
// yields its outgoing and incoming legs unless filtered to one currency.
func toRecords(tx models.Transaction, currency string) []models.TransactionRecord {
	base := models.TransactionRecord{
		Id:          tx.Id,
		Kind:        tx.Kind,
		Currency:    tx.Currency,
		Description: tx.Description,
		Timestamp:   tx.Timestamp,
	}

	switch tx.Kind {
	case models.KindEarn:
		base.Amount = tx.Amount
		base.Counterpart = tx.Source
		return []models.TransactionRecord{base}
	case models.KindSpend:
		base.Amount = -tx.Amount
		base.Counterpart = tx.Target
		return []models.TransactionRecord{base}
	}

	out := base
	out.Amount = -tx.Amount
	out.Counterpart = tx.ToCurrency.String()

	in := base
	in.Currency = tx.ToCurrency
	in.Amount = tx.ConvertedAmount
	in.Counterpart = tx.Currency.String()

	switch currency {
	case tx.Currency.String():
		return []models.TransactionRecord{out}
	case tx.ToCurrency.String():
		return []models.TransactionRecord{in}
	}
	return []models.TransactionRecord{out, in}
}
