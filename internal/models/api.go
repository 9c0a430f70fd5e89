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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the public view of a user record. It never carries the password hash.
type Account struct {
	Username         string    `json:"username"`
	Profile          Profile   `json:"profile"`
	Wallet           Wallet    `json:"wallet"`
	Achievements     []string  `json:"achievements"`
	CreatedAt        time.Time `json:"created_at"`
	LastLogin        time.Time `json:"last_login"`
	TransactionCount int       `json:"transaction_count"`
}

// UserBalance represents a user's balance for a specific currency
type UserBalance struct {
	Currency Currency        `json:"currency"`
	Balance  int64           `json:"balance"`
	Value    decimal.Decimal `json:"value"` // in units of the primary currency
}

// BalanceReport is the balance view rendered by presentation adapters
type BalanceReport struct {
	Username   string          `json:"username"`
	Balances   []UserBalance   `json:"balances"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Currency    Currency        `json:"currency"`
	Amount      int64           `json:"amount"` // signed: negative for spend and transfer out
	Counterpart string          `json:"counterpart,omitempty"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

// LedgerResult reports the outcome of a balance change. Refusals such as an
// insufficient balance set Error instead of failing the call.
type LedgerResult struct {
	Success     bool         `json:"success"`
	Error       string       `json:"error,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	NewBalance  int64        `json:"new_balance"`
}
