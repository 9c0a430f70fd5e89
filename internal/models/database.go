package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion tags the persisted root object. Adding a currency requires a bump.
const SchemaVersion = "1.0"

// MaxAmount is the largest balance or amount the ledger accepts (2^53 - 1), the
// integer range a JSON number survives in every consumer of the blob.
const MaxAmount int64 = 1<<53 - 1

// AuthStore is the root object persisted under a single key.
type AuthStore struct {
	Version        string           `json:"version"`
	Revision       int64            `json:"revision"`
	Users          map[string]*User `json:"users"`
	CurrentSession *CurrentSession  `json:"currentSession"`
}

// NewAuthStore returns the default empty store.
func NewAuthStore() *AuthStore {
	return &AuthStore{
		Version: SchemaVersion,
		Users:   make(map[string]*User),
	}
}

// User represents one registered identity
type User struct {
	PasswordHash  string        `json:"passwordHash"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastLogin     time.Time     `json:"lastLogin"`
	IpFingerprint string        `json:"ipFingerprint"`
	Wallet        Wallet        `json:"wallet"`
	Profile       Profile       `json:"profile"`
	Transactions  []Transaction `json:"transactions"`
	Achievements  []string      `json:"achievements"`
	Sessions      []Session     `json:"sessions"`
}

// Wallet maps every currency to a non-negative balance.
type Wallet map[Currency]int64

// NewWallet returns a wallet with every known currency set to zero.
func NewWallet() Wallet {
	w := make(Wallet, len(Currencies))
	for _, c := range Currencies {
		w[c] = 0
	}
	return w
}

// Clone returns a zero-filled copy.
func (w Wallet) Clone() Wallet {
	out := NewWallet()
	for c, v := range w {
		out[c] = v
	}
	return out
}

type Profile struct {
	DisplayName string            `json:"displayName"`
	Avatar      string            `json:"avatar"`
	Preferences map[string]string `json:"preferences"`
}

// TransactionKind is the direction of a balance change
type TransactionKind string

const (
	KindEarn     TransactionKind = "earn"
	KindSpend    TransactionKind = "spend"
	KindTransfer TransactionKind = "transfer"
)

// Transaction represents one immutable balance change. Transfers are recorded
// against the source currency and carry the destination side in the To* fields.
type Transaction struct {
	Id              string          `json:"id"`
	Kind            TransactionKind `json:"kind"`
	Amount          int64           `json:"amount"`
	Currency        Currency        `json:"currency"`
	Source          string          `json:"source,omitempty"`
	Target          string          `json:"target,omitempty"`
	Description     string          `json:"description"`
	Timestamp       time.Time       `json:"timestamp"`
	BalanceAfter    int64           `json:"balanceAfter"`
	ToCurrency      Currency        `json:"toCurrency,omitempty"`
	ConvertedAmount int64           `json:"convertedAmount,omitempty"`
	ExchangeRate    string          `json:"exchangeRate,omitempty"`
}

// Session represents one authenticated browsing context
type Session struct {
	Token             string    `json:"token"`
	LoginTime         time.Time `json:"loginTime"`
	LastActive        time.Time `json:"lastActive"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
}

// CurrentSession points at the signed-in user. At most one exists per store.
type CurrentSession struct {
	Username      string    `json:"username"`
	Token         string    `json:"token"`
	LoginTime     time.Time `json:"loginTime"`
	ActiveContext string    `json:"activeContext"`
}

// NewTransactionId returns a time-ordered id with a random suffix.
func NewTransactionId(at time.Time) string {
	return fmt.Sprintf("tx_%d_%s", at.UnixMilli(), strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
