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

package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.KeyValueStore and store.Swapper.
var (
	_ store.KeyValueStore = (*Service)(nil)
	_ store.Swapper       = (*Service)(nil)
)

// Service is one browsing context over a SQLite file. Every process (or
// Service) opening the same file with a different origin acts as another tab.
type Service struct {
	db           *sql.DB
	origin       string
	pollInterval time.Duration

	// change feed state, owned by the poll loop once started
	lastRevision int64
	lastValues   map[string][]byte

	subsMu sync.Mutex
	subs   map[uint64]func(store.Event)
	nextId uint64

	watchOnce sync.Once
	closeOnce sync.Once
	watching  bool
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", cfg.PollInterval)
	}
	if cfg.BusyTimeout < 0 {
		return nil, fmt.Errorf("busy timeout cannot be negative, got %v", cfg.BusyTimeout)
	}

	origin := cfg.Origin
	if origin == "" {
		origin = uuid.New().String()
	}

	zap.L().Info("Opening SQLite store", zap.String("file", cfg.Path), zap.String("origin", origin))
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	var lastRevision int64
	if err := db.QueryRowContext(ctx, queryMaxRevision).Scan(&lastRevision); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to read store revision: %w", err)
	}

	zap.L().Info("SQLite store initialized successfully", zap.Int64("revision", lastRevision))
	return &Service{
		db:           db,
		origin:       origin,
		pollInterval: cfg.PollInterval,
		lastRevision: lastRevision,
		lastValues:   make(map[string][]byte),
		subs:         make(map[uint64]func(store.Event)),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}, nil
}

func (s *Service) Origin() string { return s.origin }

// Close stops the change feed and closes the database connection.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// stopChan closes under subsMu so startWatching cannot start a loop after this
		s.subsMu.Lock()
		watching := s.watching
		close(s.stopChan)
		s.subsMu.Unlock()

		if watching {
			<-s.doneChan
		}

		if err = s.db.Close(); err != nil {
			zap.L().Warn("Failed to close database connection", zap.Error(err))
		}
	})
	return err
}

func (s *Service) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, queryGetValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to read key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *Service) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return fmt.Errorf("failed to set %s: nil value", key)
	}
	if _, err := s.db.ExecContext(ctx, queryUpsertValue, key, value, s.origin); err != nil {
		zap.L().Error("Failed to write key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	zap.L().Debug("Key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// CompareAndSwap writes new only if the stored value still equals old. The
// check and the write share one IMMEDIATE transaction, so other processes on
// the same file cannot interleave.
func (s *Service) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	if new == nil {
		return false, fmt.Errorf("failed to swap %s: nil value", key)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current []byte
	exists := true
	err = tx.QueryRowContext(ctx, queryGetValue, key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if old == nil && exists {
		return false, nil
	}
	if old != nil && (!exists || !bytes.Equal(current, old)) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, queryUpsertValue, key, new, s.origin); err != nil {
		return false, fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
