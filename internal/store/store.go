package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnchanged is returned by an Update callback that succeeded without
// modifying the store. The write is skipped and Update returns nil.
var ErrUnchanged = errors.New("store unchanged")

// Event describes a write observed by a browsing context other than the writer.
type Event struct {
	Key      string
	OldValue []byte
	NewValue []byte
	Origin   string // origin of the writer
	At       time.Time
}

// KeyValueStore defines the contract that every backend (memory, SQLite, ...) must satisfy.
//
// Get returns (nil, nil) for an absent key. Set notifies the subscribers of
// every other origin sharing the storage, never the writer itself.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	// Subscribe registers fn for foreign writes and returns its disposer.
	Subscribe(fn func(Event)) (unsubscribe func())

	// Origin identifies this browsing context.
	Origin() string

	Close() error
}

// Swapper is implemented by backends that can write conditionally. A nil old
// value means the key must be absent.
type Swapper interface {
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
}
