package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"infinity-ledger-go/internal/models"

	"go.uber.org/zap"
)

// RepositoryConfig controls how the auth blob is written back.
type RepositoryConfig struct {
	Key              string
	OptimisticWrites bool
	MaxRetries       int
}

// Repository reads and writes the whole AuthStore as one JSON value.
type Repository struct {
	kv  KeyValueStore
	cfg RepositoryConfig

	// serializes Update within this context so goroutines behave like one tab
	mu sync.Mutex
}

func NewRepository(kv KeyValueStore, cfg RepositoryConfig) *Repository {
	return &Repository{kv: kv, cfg: cfg}
}

func (r *Repository) Key() string { return r.cfg.Key }

func (r *Repository) KV() KeyValueStore { return r.kv }

// Load returns the current store. Missing or corrupt data yields the default empty store.
func (r *Repository) Load(ctx context.Context) (*models.AuthStore, error) {
	st, _, err := r.read(ctx)
	return st, err
}

// Update runs fn against a freshly read copy of the store and writes the result
// back in a single Set. An error from fn aborts without writing; ErrUnchanged
// aborts without writing and without error.
//
// In optimistic mode the write only lands if the stored bytes are still the ones
// read; otherwise the store is re-read and fn runs again, so fn must derive all
// of its effects from the AuthStore it is given.
func (r *Repository) Update(ctx context.Context, fn func(st *models.AuthStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	swapper, canSwap := r.kv.(Swapper)
	optimistic := r.cfg.OptimisticWrites && canSwap

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		st, raw, err := r.read(ctx)
		if err != nil {
			return err
		}

		if err := fn(st); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return nil
			}
			return err
		}

		st.Revision++
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode store: %w", err)
		}

		if !optimistic {
			if err := r.kv.Set(ctx, r.cfg.Key, data); err != nil {
				return fmt.Errorf("failed to write store: %w", err)
			}
			return nil
		}

		swapped, err := swapper.CompareAndSwap(ctx, r.cfg.Key, raw, data)
		if err != nil {
			return fmt.Errorf("failed to write store: %w", err)
		}
		if swapped {
			return nil
		}

		zap.L().Warn("Store changed since read, retrying",
			zap.String("key", r.cfg.Key),
			zap.String("origin", r.kv.Origin()),
			zap.Int("attempt", attempt+1),
			zap.Int64("read_revision", st.Revision-1))
	}

	zap.L().Error("Giving up on store write after retries",
		zap.String("key", r.cfg.Key),
		zap.Int("max_retries", r.cfg.MaxRetries))
	return fmt.Errorf("write to %s failed - %w", r.cfg.Key, models.ErrConcurrentModification)
}

func (r *Repository) read(ctx context.Context) (*models.AuthStore, []byte, error) {
	raw, err := r.kv.Get(ctx, r.cfg.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read store: %w", err)
	}
	if raw == nil {
		return models.NewAuthStore(), nil, nil
	}

	st, err := decode(raw)
	if err != nil {
		// The next successful write replaces the corrupt blob.
		zap.L().Error("Discarding corrupt auth store",
			zap.String("key", r.cfg.Key),
			zap.Int("bytes", len(raw)),
			zap.Error(err))
		return models.NewAuthStore(), raw, nil
	}
	return st, raw, nil
}

func decode(raw []byte) (*models.AuthStore, error) {
	var st models.AuthStore
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreCorruption, err)
	}
	if st.Version == "" {
		st.Version = models.SchemaVersion
	}
	if st.Users == nil {
		st.Users = make(map[string]*models.User)
	}
	for name, user := range st.Users {
		if user == nil {
			return nil, fmt.Errorf("%w: user %q has no record", models.ErrStoreCorruption, name)
		}
		user.Wallet = user.Wallet.Clone()
		for c, balance := range user.Wallet {
			if !c.Valid() || balance < 0 {
				return nil, fmt.Errorf("%w: user %q has invalid balance %s=%d", models.ErrStoreCorruption, name, c, balance)
			}
		}
	}
	return &st, nil
}
