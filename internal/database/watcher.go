package database

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"infinity-ledger-go/internal/store"

	"go.uber.org/zap"
)

type change struct {
	key      string
	value    []byte
	revision int64
	origin   string
}

// Subscribe registers fn for writes made by other origins. The poll loop starts
// with the first subscription and runs until Close.
func (s *Service) Subscribe(fn func(store.Event)) func() {
	s.subsMu.Lock()
	id := s.nextId
	s.nextId++
	s.subs[id] = fn
	s.subsMu.Unlock()

	s.watchOnce.Do(s.startWatching)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Service) startWatching() {
	s.subsMu.Lock()
	select {
	case <-s.stopChan:
		s.subsMu.Unlock()
		return
	default:
	}
	s.watching = true
	s.subsMu.Unlock()

	go s.pollLoop()

	zap.L().Info("Store change feed started",
		zap.String("origin", s.origin),
		zap.Duration("polling_interval", s.pollInterval),
		zap.Int64("from_revision", s.lastRevision))
}

// pollLoop runs the change feed until Close
func (s *Service) pollLoop() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.pollChanges(); err != nil {
				zap.L().Error("Failed to poll store changes", zap.String("origin", s.origin), zap.Error(err))
			}
		case <-s.stopChan:
			return
		}
	}
}

// pollChanges delivers every foreign write since the last seen revision. Rows
// are fully read before delivery so subscribers may write back through s.
func (s *Service) pollChanges() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes, err := s.changesSince(ctx, s.lastRevision)
	if err != nil {
		return err
	}

	for _, c := range changes {
		s.lastRevision = c.revision
		old := s.lastValues[c.key]
		s.lastValues[c.key] = c.value

		if c.origin == s.origin || bytes.Equal(old, c.value) {
			continue
		}
		s.deliver(store.Event{
			Key:      c.key,
			OldValue: old,
			NewValue: c.value,
			Origin:   c.origin,
			At:       time.Now(),
		})
	}
	return nil
}

func (s *Service) changesSince(ctx context.Context, revision int64) ([]change, error) {
	rows, err := s.db.QueryContext(ctx, queryChangesSince, revision)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var changes []change
	for rows.Next() {
		var c change
		if err := rows.Scan(&c.key, &c.value, &c.revision, &c.origin); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		changes = append(changes, c)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change rows: %w", err)
	}
	return changes, nil
}

func (s *Service) deliver(ev store.Event) {
	s.subsMu.Lock()
	fns := make([]func(store.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	zap.L().Debug("Delivering store change",
		zap.String("origin", s.origin),
		zap.String("writer", ev.Origin),
		zap.String("key", ev.Key),
		zap.Int("subscribers", len(fns)))

	for _, fn := range fns {
		fn(ev)
	}
}
