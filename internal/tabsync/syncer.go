package tabsync

import (
	"sync"
	"time"

	"infinity-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Change signals that another context rewrote the watched key. Listeners
// should reread the whole store.
type Change struct {
	Origin string
	At     time.Time
}

// Syncer fans store events for one key out to listeners. It holds a store
// subscription only while at least one listener is registered.
type Syncer struct {
	kv  store.KeyValueStore
	key string

	mu          sync.Mutex
	listeners   map[uint64]func(Change)
	nextId      uint64
	unsubscribe func()
}

func New(kv store.KeyValueStore, key string) *Syncer {
	return &Syncer{
		kv:        kv,
		key:       key,
		listeners: make(map[uint64]func(Change)),
	}
}

// Subscribe registers fn and returns an idempotent disposer. fn runs on the
// store's delivery goroutine, one call at a time.
func (s *Syncer) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.listeners[id] = fn
	if s.unsubscribe == nil {
		s.unsubscribe = s.kv.Subscribe(s.handle)
		zap.L().Debug("Watching store key", zap.String("key", s.key), zap.String("origin", s.kv.Origin()))
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Listeners returns the number of registered listeners.
func (s *Syncer) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Syncer) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listeners, id)
	if len(s.listeners) == 0 && s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		zap.L().Debug("Stopped watching store key", zap.String("key", s.key), zap.String("origin", s.kv.Origin()))
	}
}

func (s *Syncer) handle(ev store.Event) {
	if ev.Key != s.key || ev.Origin == s.kv.Origin() {
		return
	}

	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	change := Change{Origin: ev.Origin, At: ev.At}
	for _, fn := range fns {
		fn(change)
	}
}
