package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Store    StoreConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
}

// DatabaseConfig holds SQLite connection settings
type DatabaseConfig struct {
	Path         string
	Origin       string // browsing-context id; random when empty
	MaxOpenConns int
	BusyTimeout  time.Duration
	PingTimeout  time.Duration
	PollInterval time.Duration
}

// StoreConfig controls how the auth blob is read and written
type StoreConfig struct {
	Key              string
	OptimisticWrites bool
	MaxRetries       int
}

// AuthConfig holds credential and session settings
type AuthConfig struct {
	SessionLifetime time.Duration
	WelcomeBonus    int64
	Argon2Time      uint32
	Argon2MemoryKB  uint32
	Argon2Threads   uint8
}

// LedgerConfig holds wallet settings
type LedgerConfig struct {
	RatesFile string
}
