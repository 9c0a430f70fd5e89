package api

import (
	"context"
	"testing"
	"time"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"
	"infinity-ledger-go/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedger(t *testing.T) (*LedgerService, *auth.Service) {
	t.Helper()
	tab := store.NewSharedMemory().Open("tab-1")
	t.Cleanup(func() { tab.Close() })

	repo := store.NewRepository(tab, store.RepositoryConfig{Key: "auth", OptimisticWrites: true, MaxRetries: 3})
	authService := auth.NewService(repo, auth.Config{
		SessionLifetime: time.Hour,
		WelcomeBonus:    100,
		Hasher:          auth.PasswordHasher{Time: 1, MemoryKB: 64, Threads: 1},
		Fingerprint:     "test-device",
	})
	walletService, err := wallet.NewService(repo, authService, wallet.DefaultRates())
	require.NoError(t, err)

	return NewLedgerService(repo, authService, walletService), authService
}

func signIn(t *testing.T, authService *auth.Service) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, authService.Register(ctx, "alice", "secret1"))
	_, err := authService.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ledger, _ := setupLedger(t)
	require.NoError(t, ledger.HealthCheck(context.Background()))
}

func TestBalances(t *testing.T) {
	ledger, authService := setupLedger(t)
	ctx := context.Background()

	_, err := ledger.Balances(ctx)
	require.ErrorIs(t, err, models.ErrNotAuthenticated)

	signIn(t, authService)
	res, err := ledger.Earn(ctx, "art", 10, "gallery", "Sold a sketch")
	require.NoError(t, err)
	require.True(t, res.Success)

	report, err := ledger.Balances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", report.Username)
	require.Len(t, report.Balances, len(models.Currencies))
	for i, c := range models.Currencies {
		assert.Equal(t, c, report.Balances[i].Currency)
	}
	assert.Equal(t, int64(10), report.Balances[2].Balance)
	assert.True(t, report.Balances[2].Value.Equal(decimal.NewFromInt(15)))
	assert.True(t, report.TotalValue.Equal(decimal.NewFromInt(115)))
}

func TestEarnAndSpend_RefusalsAreResults(t *testing.T) {
	ledger, authService := setupLedger(t)
	ctx := context.Background()

	res, err := ledger.Earn(ctx, "infinity", 5, "", "")
	require.NoError(t, err)
	assert.False(t, res.Success, "signed out")

	signIn(t, authService)

	res, err = ledger.Earn(ctx, "gold", 5, "", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "currency")

	res, err = ledger.Spend(ctx, "infinity", 500, "shop", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "insufficient balance")

	res, err = ledger.Spend(ctx, "infinity", 40, "shop", "Stickers")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(60), res.NewBalance)
	assert.Equal(t, models.KindSpend, res.Transaction.Kind)
}

func TestConvert(t *testing.T) {
	ledger, authService := setupLedger(t)
	ctx := context.Background()
	signIn(t, authService)

	res, err := ledger.Convert(ctx, "infinity", "research", 10, "")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(5), res.Transaction.ConvertedAmount)
	assert.Equal(t, int64(90), res.NewBalance)

	res, err = ledger.Convert(ctx, "infinity", "art", 10, "3")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(30), res.Transaction.ConvertedAmount)

	res, err = ledger.Convert(ctx, "infinity", "art", 10, "lots")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "rate")
}

func TestHistory(t *testing.T) {
	ledger, authService := setupLedger(t)
	ctx := context.Background()

	_, err := ledger.History(ctx, "", 0)
	require.ErrorIs(t, err, models.ErrNotAuthenticated)

	signIn(t, authService)
	_, err = ledger.Spend(ctx, "infinity", 20, "shop", "")
	require.NoError(t, err)
	_, err = ledger.Convert(ctx, "infinity", "research", 10, "")
	require.NoError(t, err)

	records, err := ledger.History(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, records, 4, "transfer yields both legs")

	assert.Equal(t, models.KindTransfer, records[0].Kind)
	assert.Equal(t, int64(-10), records[0].Amount)
	assert.Equal(t, models.CurrencyInfinity, records[0].Currency)
	assert.Equal(t, int64(5), records[1].Amount)
	assert.Equal(t, models.CurrencyResearch, records[1].Currency)
	assert.Equal(t, int64(-20), records[2].Amount)
	assert.Equal(t, "shop", records[2].Counterpart)
	assert.Equal(t, int64(100), records[3].Amount)
	assert.Equal(t, "system", records[3].Counterpart)

	research, err := ledger.History(ctx, "research", 0)
	require.NoError(t, err)
	require.Len(t, research, 1)
	assert.Equal(t, int64(5), research[0].Amount)

	limited, err := ledger.History(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = ledger.History(ctx, "gold", 0)
	require.ErrorIs(t, err, models.ErrValidation)
}
