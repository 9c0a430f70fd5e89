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

package wallet

import (
	"context"
	"fmt"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxAmount = decimal.NewFromInt(models.MaxAmount)

// Service applies balance changes to the signed-in user's wallet. Every
// mutation resolves the session and writes the wallet and its transaction in
// the same store update.
type Service struct {
	repo     *store.Repository
	sessions *auth.Service
	rates    Rates
}

func NewService(repo *store.Repository, sessions *auth.Service, rates Rates) (*Service, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return &Service{repo: repo, sessions: sessions, rates: rates}, nil
}

func (s *Service) Rates() Rates { return s.rates }

// Credit adds amount to the current user's balance and records an earn.
func (s *Service) Credit(ctx context.Context, currency models.Currency, amount int64, source, description string) (*models.Transaction, error) {
	if err := validateAmount(currency, amount); err != nil {
		return nil, err
	}

	var tx models.Transaction
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		p, err := s.sessions.Resolve(st)
		if err != nil {
			return err
		}

		balance := p.User.Wallet[currency]
		if balance > models.MaxAmount-amount {
			return fmt.Errorf("%w: %s balance %d + %d", models.ErrAmountOverflow, currency, balance, amount)
		}

		now := s.sessions.Now()
		p.User.Wallet[currency] = balance + amount
		tx = models.Transaction{
			Id:           models.NewTransactionId(now),
			Kind:         models.KindEarn,
			Amount:       amount,
			Currency:     currency,
			Source:       source,
			Description:  description,
			Timestamp:    now,
			BalanceAfter: balance + amount,
		}
		p.User.Transactions = append(p.User.Transactions, tx)
		p.Session.LastActive = now
		username = p.Username
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Credited wallet",
		zap.String("username", username),
		zap.String("currency", currency.String()),
		zap.Int64("amount", amount),
		zap.Int64("balance", tx.BalanceAfter),
		zap.String("transaction_id", tx.Id))
	return &tx, nil
}

// Debit removes amount from the current user's balance and records a spend.
// Nothing changes when the balance is short.
func (s *Service) Debit(ctx context.Context, currency models.Currency, amount int64, target, description string) (*models.Transaction, error) {
	if err := validateAmount(currency, amount); err != nil {
		return nil, err
	}

	var tx models.Transaction
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		p, err := s.sessions.Resolve(st)
		if err != nil {
			return err
		}
		username = p.Username

		balance := p.User.Wallet[currency]
		if balance < amount {
			return fmt.Errorf("%w: %s balance %d, requested %d", models.ErrInsufficientBalance, currency, balance, amount)
		}

		now := s.sessions.Now()
		p.User.Wallet[currency] = balance - amount
		tx = models.Transaction{
			Id:           models.NewTransactionId(now),
			Kind:         models.KindSpend,
			Amount:       amount,
			Currency:     currency,
			Target:       target,
			Description:  description,
			Timestamp:    now,
			BalanceAfter: balance - amount,
		}
		p.User.Transactions = append(p.User.Transactions, tx)
		p.Session.LastActive = now
		return nil
	})
	if err != nil {
		if username != "" {
			zap.L().Warn("Debit refused",
				zap.String("username", username),
				zap.String("currency", currency.String()),
				zap.Int64("amount", amount),
				zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Debited wallet",
		zap.String("username", username),
		zap.String("currency", currency.String()),
		zap.Int64("amount", amount),
		zap.Int64("balance", tx.BalanceAfter),
		zap.String("transaction_id", tx.Id))
	return &tx, nil
}

// Transfer converts amount of from into floor(amount * rate) of to.
func (s *Service) Transfer(ctx context.Context, from, to models.Currency, amount int64, rate decimal.Decimal) (*models.Transaction, error) {
	if !rate.IsPositive() {
		return nil, &models.ValidationError{Field: "rate", Reason: fmt.Sprintf("must be positive, got %s", rate)}
	}
	converted := decimal.NewFromInt(amount).Mul(rate).Floor()
	return s.transfer(ctx, from, to, amount, rate, converted)
}

// TransferAtMarket converts at the ratio of the configured rates.
func (s *Service) TransferAtMarket(ctx context.Context, from, to models.Currency, amount int64) (*models.Transaction, error) {
	if err := validateAmount(from, amount); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", to)}
	}
	// exact integer quotient of amount*rate(from) / rate(to)
	converted, _ := decimal.NewFromInt(amount).Mul(s.rates[from]).QuoRem(s.rates[to], 0)
	return s.transfer(ctx, from, to, amount, s.rates.Rate(from, to), converted)
}

func (s *Service) transfer(ctx context.Context, from, to models.Currency, amount int64, rate, converted decimal.Decimal) (*models.Transaction, error) {
	if err := validateAmount(from, amount); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", to)}
	}
	if from == to {
		return nil, &models.ValidationError{Field: "currency", Reason: "source and destination must differ"}
	}
	if converted.LessThan(decimal.NewFromInt(1)) {
		return nil, &models.ValidationError{Field: "amount", Reason: fmt.Sprintf("%d %s converts to less than one %s", amount, from, to)}
	}
	if converted.GreaterThan(maxAmount) {
		return nil, fmt.Errorf("%w: %d %s converts to %s %s", models.ErrAmountOverflow, amount, from, converted, to)
	}
	credit := converted.IntPart()

	var tx models.Transaction
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		p, err := s.sessions.Resolve(st)
		if err != nil {
			return err
		}
		username = p.Username

		fromBalance, toBalance := p.User.Wallet[from], p.User.Wallet[to]
		if fromBalance < amount {
			return fmt.Errorf("%w: %s balance %d, requested %d", models.ErrInsufficientBalance, from, fromBalance, amount)
		}
		if toBalance > models.MaxAmount-credit {
			return fmt.Errorf("%w: %s balance %d + %d", models.ErrAmountOverflow, to, toBalance, credit)
		}

		now := s.sessions.Now()
		p.User.Wallet[from] = fromBalance - amount
		p.User.Wallet[to] = toBalance + credit
		tx = models.Transaction{
			Id:              models.NewTransactionId(now),
			Kind:            models.KindTransfer,
			Amount:          amount,
			Currency:        from,
			Source:          from.String(),
			Target:          to.String(),
			Description:     fmt.Sprintf("Converted %d %s to %d %s", amount, from, credit, to),
			Timestamp:       now,
			BalanceAfter:    fromBalance - amount,
			ToCurrency:      to,
			ConvertedAmount: credit,
			ExchangeRate:    rate.String(),
		}
		p.User.Transactions = append(p.User.Transactions, tx)
		p.Session.LastActive = now
		return nil
	})
	if err != nil {
		if username != "" {
			zap.L().Warn("Transfer refused",
				zap.String("username", username),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
				zap.Int64("amount", amount),
				zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Transferred between currencies",
		zap.String("username", username),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int64("amount", amount),
		zap.Int64("converted", credit),
		zap.String("rate", tx.ExchangeRate),
		zap.String("transaction_id", tx.Id))
	return &tx, nil
}

func validateAmount(currency models.Currency, amount int64) error {
	if !currency.Valid() {
		return &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", currency)}
	}
	if amount <= 0 {
		return &models.ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %d", amount)}
	}
	if amount > models.MaxAmount {
		return fmt.Errorf("%w: amount %d", models.ErrAmountOverflow, amount)
	}
	return nil
}
