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

package listener

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/tabsync"
	"infinity-ledger-go/internal/wallet"

	"go.uber.org/zap"
)

// WalletListenerConfig contains configuration for WalletListener
type WalletListenerConfig struct {
	Sync   *tabsync.Syncer
	Auth   *auth.Service
	Wallet *wallet.Service
	// Out receives the console report. Defaults to os.Stdout.
	Out io.Writer
}

// WalletListener rereads the signed-in wallet whenever another context writes
// the store and reports what changed.
type WalletListener struct {
	syncer *tabsync.Syncer
	auth   *auth.Service
	wallet *wallet.Service
	out    io.Writer

	changes chan tabsync.Change
	dispose func()

	// last snapshot, owned by runLoop after Start
	username string
	balances models.Wallet
	txCount  int

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// BalanceChange is the movement of one currency between two snapshots.
type BalanceChange struct {
	Currency models.Currency
	Before   int64
	After    int64
}

func (c BalanceChange) Delta() int64 { return c.After - c.Before }

// NewWalletListener creates a new wallet listener
func NewWalletListener(cfg WalletListenerConfig) *WalletListener {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &WalletListener{
		syncer:   cfg.Sync,
		auth:     cfg.Auth,
		wallet:   cfg.Wallet,
		out:      out,
		changes:  make(chan tabsync.Change, 16),
		balances: models.NewWallet(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start takes the initial snapshot and begins listening.
func (l *WalletListener) Start(ctx context.Context) error {
	zap.L().Info("Starting wallet listener")

	if err := l.snapshot(ctx); err != nil {
		return fmt.Errorf("failed to read initial wallet: %w", err)
	}
	l.printSnapshot()

	l.dispose = l.syncer.Subscribe(func(c tabsync.Change) {
		// a full buffer already holds a pending reread
		select {
		case l.changes <- c:
		default:
		}
	})

	go l.runLoop(ctx)

	zap.L().Info("Wallet listener started", zap.String("username", l.username))
	return nil
}

// Stop gracefully stops the wallet listener
func (l *WalletListener) Stop() {
	l.stopOnce.Do(func() {
		zap.L().Info("Stopping wallet listener")
		if l.dispose != nil {
			l.dispose()
		}
		close(l.stopChan)
		if l.dispose != nil {
			<-l.doneChan
		}
		zap.L().Info("Wallet listener stopped")
	})
}

func (l *WalletListener) runLoop(ctx context.Context) {
	defer close(l.doneChan)

	for {
		select {
		case c := <-l.changes:
			l.refresh(ctx, c)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *WalletListener) refresh(ctx context.Context, change tabsync.Change) {
	previousUser := l.username
	previous := l.balances
	previousCount := l.txCount

	if err := l.snapshot(ctx); err != nil {
		fmt.Fprintf(l.out, "%s✗ failed to reread store: %s%s\n", colorRed, err, colorReset)
		zap.L().Error("Failed to reread store after change", zap.String("writer", change.Origin), zap.Error(err))
		return
	}

	if l.username != previousUser {
		l.printSessionChange(change, previousUser)
		l.printSnapshot()
		return
	}

	diff := Diff(previous, l.balances)
	l.printChanges(change, diff, l.txCount-previousCount)

	zap.L().Info("Observed wallet change",
		zap.String("writer", change.Origin),
		zap.String("username", l.username),
		zap.Int("currencies_changed", len(diff)),
		zap.Int("new_transactions", l.txCount-previousCount))
}

func (l *WalletListener) snapshot(ctx context.Context) error {
	account, err := l.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if account == nil {
		l.username, l.balances, l.txCount = "", models.NewWallet(), 0
		return nil
	}
	l.username, l.balances, l.txCount = account.Username, account.Wallet, account.TransactionCount
	return nil
}

// Diff lists the currencies whose balance differs, in display order.
func Diff(before, after models.Wallet) []BalanceChange {
	var out []BalanceChange
	for _, c := range models.Currencies {
		if before[c] != after[c] {
			out = append(out, BalanceChange{Currency: c, Before: before[c], After: after[c]})
		}
	}
	return out
}
