package listener

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"
	"infinity-ledger-go/internal/tabsync"
	"infinity-ledger-go/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type tab struct {
	kv     *store.Memory
	auth   *auth.Service
	wallet *wallet.Service
}

func openTab(t *testing.T, shared *store.SharedMemory, origin string) *tab {
	t.Helper()
	kv := shared.Open(origin)
	t.Cleanup(func() { kv.Close() })

	repo := store.NewRepository(kv, store.RepositoryConfig{Key: "auth", OptimisticWrites: true, MaxRetries: 3})
	authService := auth.NewService(repo, auth.Config{
		SessionLifetime: time.Hour,
		WelcomeBonus:    100,
		Hasher:          auth.PasswordHasher{Time: 1, MemoryKB: 64, Threads: 1},
		Fingerprint:     origin,
	})
	walletService, err := wallet.NewService(repo, authService, wallet.DefaultRates())
	require.NoError(t, err)
	return &tab{kv: kv, auth: authService, wallet: walletService}
}

func TestDiff(t *testing.T) {
	before := models.NewWallet()
	after := models.NewWallet()
	after[models.CurrencyArt] = 5
	before[models.CurrencyInfinity] = 10

	diff := Diff(before, after)
	require.Len(t, diff, 2)
	assert.Equal(t, models.CurrencyInfinity, diff[0].Currency)
	assert.Equal(t, int64(-10), diff[0].Delta())
	assert.Equal(t, models.CurrencyArt, diff[1].Currency)
	assert.Equal(t, int64(5), diff[1].Delta())

	assert.Empty(t, Diff(after, after))
}

func TestWalletListener_ReportsChangesFromOtherContexts(t *testing.T) {
	shared := store.NewSharedMemory()
	watcher := openTab(t, shared, "tab-watch")
	writer := openTab(t, shared, "tab-write")
	ctx := context.Background()

	out := &lockedBuffer{}
	l := NewWalletListener(WalletListenerConfig{
		Sync:   tabsync.New(watcher.kv, "auth"),
		Auth:   watcher.auth,
		Wallet: watcher.wallet,
		Out:    out,
	})
	require.NoError(t, l.Start(ctx))
	defer l.Stop()
	assert.Contains(t, out.String(), "No user signed in")

	require.NoError(t, writer.auth.Register(ctx, "alice", "secret1"))
	_, err := writer.auth.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "alice signed in from tab-write")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = writer.wallet.Credit(ctx, models.CurrencyResearch, 50, "lab", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "(+50 RSC)")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWalletListener_StopIsIdempotent(t *testing.T) {
	watcher := openTab(t, store.NewSharedMemory(), "tab-watch")
	syncer := tabsync.New(watcher.kv, "auth")

	l := NewWalletListener(WalletListenerConfig{Sync: syncer, Auth: watcher.auth, Wallet: watcher.wallet, Out: &lockedBuffer{}})
	require.NoError(t, l.Start(context.Background()))
	assert.Equal(t, 1, syncer.Listeners())

	l.Stop()
	l.Stop()
	assert.Zero(t, syncer.Listeners())
}
