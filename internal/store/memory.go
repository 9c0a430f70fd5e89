package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Compile-time check: *Memory must satisfy KeyValueStore and Swapper.
var (
	_ KeyValueStore = (*Memory)(nil)
	_ Swapper       = (*Memory)(nil)
)

// SharedMemory is an in-process storage area shared by several browsing
// contexts, the way one browser profile shares localStorage between tabs.
type SharedMemory struct {
	mu   sync.Mutex
	data map[string][]byte
	tabs map[*Memory]struct{}
}

func NewSharedMemory() *SharedMemory {
	return &SharedMemory{
		data: make(map[string][]byte),
		tabs: make(map[*Memory]struct{}),
	}
}

// Open attaches a new browsing context with the given origin.
func (s *SharedMemory) Open(origin string) *Memory {
	m := &Memory{
		shared: s,
		origin: origin,
		subs:   make(map[uint64]func(Event)),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.tabs[m] = struct{}{}
	s.mu.Unlock()

	go m.dispatchLoop()
	return m
}

func (s *SharedMemory) write(writer *Memory, key string, value []byte) {
	old := s.data[key]
	s.data[key] = bytes.Clone(value)

	ev := Event{Key: key, OldValue: old, NewValue: bytes.Clone(value), Origin: writer.origin, At: time.Now()}
	for tab := range s.tabs {
		if tab != writer {
			tab.enqueue(ev)
		}
	}
}

// Memory is one browsing context over a SharedMemory.
type Memory struct {
	shared *SharedMemory
	origin string

	subsMu sync.Mutex
	subs   map[uint64]func(Event)
	nextId uint64

	queueMu sync.Mutex
	queue   []Event
	wake    chan struct{}

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func (m *Memory) Origin() string { return m.origin }

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()

	value, ok := m.shared.data[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if value == nil {
		return fmt.Errorf("failed to set %s: nil value", key)
	}

	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()

	m.shared.write(m, key, value)
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, old, new []byte) (bool, error) {
	if new == nil {
		return false, fmt.Errorf("failed to swap %s: nil value", key)
	}

	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()

	current, exists := m.shared.data[key]
	if old == nil && exists {
		return false, nil
	}
	if old != nil && (!exists || !bytes.Equal(current, old)) {
		return false, nil
	}

	m.shared.write(m, key, new)
	return true, nil
}

func (m *Memory) Subscribe(fn func(Event)) func() {
	m.subsMu.Lock()
	id := m.nextId
	m.nextId++
	m.subs[id] = fn
	m.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
		})
	}
}

// Close detaches the context and stops its dispatcher. Pending events are dropped.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		m.shared.mu.Lock()
		delete(m.shared.tabs, m)
		m.shared.mu.Unlock()

		close(m.stop)
		<-m.done
	})
	return nil
}

func (m *Memory) enqueue(ev Event) {
	m.queueMu.Lock()
	m.queue = append(m.queue, ev)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop delivers queued events in write order, one subscriber call at a time.
func (m *Memory) dispatchLoop() {
	defer close(m.done)

	for {
		select {
		case <-m.stop:
			return
		case <-m.wake:
		}

		m.queueMu.Lock()
		pending := m.queue
		m.queue = nil
		m.queueMu.Unlock()

		for _, ev := range pending {
			m.deliver(ev)
		}
	}
}

func (m *Memory) deliver(ev Event) {
	m.subsMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	zap.L().Debug("Delivering storage event",
		zap.String("origin", m.origin),
		zap.String("writer", ev.Origin),
		zap.String("key", ev.Key),
		zap.Int("subscribers", len(fns)))

	for _, fn := range fns {
		fn(ev)
	}
}
