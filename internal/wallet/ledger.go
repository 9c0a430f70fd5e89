package wallet

import (
	"context"
	"fmt"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// current returns the signed-in user, or nil when there is none. Reads never
// fail for a missing session.
func (s *Service) current(ctx context.Context) (*auth.Principal, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.sessions.Resolve(st)
	if err != nil {
		return nil, nil
	}
	return p, nil
}

func (s *Service) GetBalance(ctx context.Context, currency models.Currency) (int64, error) {
	if !currency.Valid() {
		return 0, &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", currency)}
	}
	p, err := s.current(ctx)
	if err != nil || p == nil {
		return 0, err
	}
	return p.User.Wallet[currency], nil
}

// GetAllBalances returns every currency, zero-filled.
func (s *Service) GetAllBalances(ctx context.Context) (models.Wallet, error) {
	p, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.NewWallet(), nil
	}
	return p.User.Wallet.Clone(), nil
}

// GetTotalValue is the wallet's worth in units of the primary currency.
func (s *Service) GetTotalValue(ctx context.Context) (decimal.Decimal, error) {
	balances, err := s.GetAllBalances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.rates.Value(balances), nil
}

// TransactionHistory returns up to limit transactions, newest first. A limit
// of zero or less returns all of them.
func (s *Service) TransactionHistory(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.history(ctx, limit, func(models.Transaction) bool { return true })
}

// TransactionHistoryFor is TransactionHistory restricted to one currency.
// Transfers count for both of their currencies.
func (s *Service) TransactionHistoryFor(ctx context.Context, currency models.Currency, limit int) ([]models.Transaction, error) {
	if !currency.Valid() {
		return nil, &models.ValidationError{Field: "currency", Reason: fmt.Sprintf("unknown currency %q", currency)}
	}
	return s.history(ctx, limit, func(tx models.Transaction) bool {
		return tx.Currency == currency || tx.ToCurrency == currency
	})
}

func (s *Service) history(ctx context.Context, limit int, keep func(models.Transaction) bool) ([]models.Transaction, error) {
	p, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Transaction{}
	if p == nil {
		return out, nil
	}

	log := p.User.Transactions
	for i := len(log) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(log[i]) {
			out = append(out, log[i])
		}
	}
	return out, nil
}

// Reconcile replays the current user's transaction log and compares the
// result with the stored wallet.
func (s *Service) Reconcile(ctx context.Context) error {
	p, err := s.current(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return models.ErrNotAuthenticated
	}

	replayed := Replay(p.User.Transactions)
	for _, c := range models.Currencies {
		if replayed[c] != p.User.Wallet[c] {
			zap.L().Error("Wallet does not match transaction log",
				zap.String("username", p.Username),
				zap.String("currency", c.String()),
				zap.Int64("stored", p.User.Wallet[c]),
				zap.Int64("replayed", replayed[c]))
			return fmt.Errorf("%w: %s stored %d, replayed %d", models.ErrBalanceMismatch, c, p.User.Wallet[c], replayed[c])
		}
	}

	zap.L().Debug("Wallet reconciled",
		zap.String("username", p.Username),
		zap.Int("transactions", len(p.User.Transactions)))
	return nil
}

// Replay rebuilds the balances implied by a transaction log.
func Replay(transactions []models.Transaction) models.Wallet {
	w := models.NewWallet()
	for _, tx := range transactions {
		switch tx.Kind {
		case models.KindEarn:
			w[tx.Currency] += tx.Amount
		case models.KindSpend:
			w[tx.Currency] -= tx.Amount
		case models.KindTransfer:
			w[tx.Currency] -= tx.Amount
			w[tx.ToCurrency] += tx.ConvertedAmount
		}
	}
	return w
}
