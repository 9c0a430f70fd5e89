package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"infinity-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "auth"

func newRepo(kv KeyValueStore, optimistic bool) *Repository {
	return NewRepository(kv, RepositoryConfig{Key: testKey, OptimisticWrites: optimistic, MaxRetries: 3})
}

func TestMemory_GetAbsentReturnsNilNil(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()

	v, err := tab.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemory_SetNotifiesOtherContextsOnly(t *testing.T) {
	shared := NewSharedMemory()
	tab1 := shared.Open("tab-1")
	tab2 := shared.Open("tab-2")
	defer tab1.Close()
	defer tab2.Close()

	var selfEvents, otherEvents atomic.Int32
	got := make(chan Event, 1)
	tab1.Subscribe(func(Event) { selfEvents.Add(1) })
	tab2.Subscribe(func(ev Event) {
		otherEvents.Add(1)
		got <- ev
	})

	require.NoError(t, tab1.Set(context.Background(), "k", []byte("v1")))

	select {
	case ev := <-got:
		assert.Equal(t, "k", ev.Key)
		assert.Equal(t, "tab-1", ev.Origin)
		assert.Nil(t, ev.OldValue)
		assert.Equal(t, []byte("v1"), ev.NewValue)
	case <-time.After(time.Second):
		t.Fatal("tab-2 was not notified")
	}

	// tab-1's own write was never queued for it, so its first event is tab-2's write
	require.NoError(t, tab2.Set(context.Background(), "k", []byte("v2")))
	require.Eventually(t, func() bool { return selfEvents.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), otherEvents.Load())
	assert.Equal(t, int32(1), selfEvents.Load(), "tab-1 must only see tab-2's write")
}

func TestMemory_UnsubscribeIsIdempotent(t *testing.T) {
	shared := NewSharedMemory()
	tab1 := shared.Open("tab-1")
	tab2 := shared.Open("tab-2")
	defer tab1.Close()
	defer tab2.Close()

	var calls atomic.Int32
	unsubscribe := tab2.Subscribe(func(Event) { calls.Add(1) })
	unsubscribe()
	unsubscribe()

	require.NoError(t, tab1.Set(context.Background(), "k", []byte("v")))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestMemory_CompareAndSwap(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()
	ctx := context.Background()

	ok, err := tab.CompareAndSwap(ctx, "k", nil, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tab.CompareAndSwap(ctx, "k", nil, []byte("b"))
	require.NoError(t, err)
	require.False(t, ok, "absent expectation must fail once the key exists")

	ok, err = tab.CompareAndSwap(ctx, "k", []byte("stale"), []byte("b"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = tab.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.True(t, ok)

	v, err := tab.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("b"), v)
}

func TestRepository_LoadEmptyReturnsDefault(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()

	st, err := newRepo(tab, true).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SchemaVersion, st.Version)
	assert.Empty(t, st.Users)
	assert.Nil(t, st.CurrentSession)
}

func TestRepository_CorruptDataFallsBackToDefault(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()
	ctx := context.Background()

	require.NoError(t, tab.Set(ctx, testKey, []byte("{not json")))

	repo := newRepo(tab, true)
	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Users)

	// the next write replaces the corrupt blob
	err = repo.Update(ctx, func(st *models.AuthStore) error {
		st.Users["alice"] = &models.User{}
		return nil
	})
	require.NoError(t, err)

	st, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, st.Users, "alice")
}

func TestRepository_NegativeBalanceIsCorruption(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()
	ctx := context.Background()

	blob := `{"version":"1.0","users":{"bob":{"wallet":{"infinity":-5}}}}`
	require.NoError(t, tab.Set(ctx, testKey, []byte(blob)))

	st, err := newRepo(tab, true).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Users)
}

func TestRepository_UpdateBumpsRevisionAndZeroFillsWallet(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()
	ctx := context.Background()
	repo := newRepo(tab, true)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Update(ctx, func(st *models.AuthStore) error {
			st.Users["alice"] = &models.User{Wallet: models.Wallet{models.CurrencyArt: 4}}
			return nil
		}))
	}

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Revision)
	assert.Len(t, st.Users["alice"].Wallet, len(models.Currencies))
	assert.Equal(t, int64(4), st.Users["alice"].Wallet[models.CurrencyArt])
}

func TestRepository_CallbackErrorSkipsWrite(t *testing.T) {
	tab := NewSharedMemory().Open("tab-1")
	defer tab.Close()
	ctx := context.Background()
	repo := newRepo(tab, true)

	boom := errors.New("boom")
	err := repo.Update(ctx, func(st *models.AuthStore) error {
		st.Users["alice"] = &models.User{}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = repo.Update(ctx, func(st *models.AuthStore) error {
		st.Users["bob"] = &models.User{}
		return ErrUnchanged
	})
	require.NoError(t, err)

	v, err := tab.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, v, "nothing should have been written")
}

// racingStore lets another context write between the repository's read and swap.
type racingStore struct {
	*Memory
	other   *Memory
	races   int
	counter int
}

func (r *racingStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	if r.counter < r.races {
		r.counter++
		st := models.NewAuthStore()
		st.Revision = int64(100 + r.counter)
		st.Users[string(rune('a'+r.counter))] = &models.User{}
		data, _ := json.Marshal(st)
		if err := r.other.Set(ctx, key, data); err != nil {
			return false, err
		}
	}
	return r.Memory.CompareAndSwap(ctx, key, old, new)
}

func TestRepository_OptimisticRetryRereadsStore(t *testing.T) {
	shared := NewSharedMemory()
	tab1 := shared.Open("tab-1")
	tab2 := shared.Open("tab-2")
	defer tab1.Close()
	defer tab2.Close()
	ctx := context.Background()

	kv := &racingStore{Memory: tab1, other: tab2, races: 1}
	repo := newRepo(kv, true)

	calls := 0
	err := repo.Update(ctx, func(st *models.AuthStore) error {
		calls++
		st.Users["alice"] = &models.User{}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, st.Users, "alice")
	assert.Contains(t, st.Users, "b", "the concurrent write must survive")
	assert.Equal(t, int64(102), st.Revision)
}

func TestRepository_OptimisticGivesUp(t *testing.T) {
	shared := NewSharedMemory()
	tab1 := shared.Open("tab-1")
	tab2 := shared.Open("tab-2")
	defer tab1.Close()
	defer tab2.Close()

	kv := &racingStore{Memory: tab1, other: tab2, races: 10}
	repo := newRepo(kv, true)

	err := repo.Update(context.Background(), func(st *models.AuthStore) error {
		st.Users["alice"] = &models.User{}
		return nil
	})
	require.ErrorIs(t, err, models.ErrConcurrentModification)
}

func TestRepository_LastWriteWinsWhenNotOptimistic(t *testing.T) {
	shared := NewSharedMemory()
	tab1 := shared.Open("tab-1")
	tab2 := shared.Open("tab-2")
	defer tab1.Close()
	defer tab2.Close()

	kv := &racingStore{Memory: tab1, other: tab2, races: 1}
	repo := newRepo(kv, false)

	// Set is used instead of CompareAndSwap, so the injected race never runs
	err := repo.Update(context.Background(), func(st *models.AuthStore) error {
		st.Users["alice"] = &models.User{}
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, kv.counter)
}
