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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"infinity-ledger-go/internal/models"
)

const (
	DefaultStoreKey        = "infinity-brain-auth"
	DefaultSessionLifetime = 30 * 24 * time.Hour
	DefaultWelcomeBonus    = 100

	maxArgon2Time     = 1000
	maxArgon2MemoryKB = 4 * 1024 * 1024
	maxArgon2Threads  = 255
)

func Load() (*models.Config, error) {
	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("SYNC_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	sessionLifetime, err := getEnvDuration("SESSION_LIFETIME", DefaultSessionLifetime)
	if err != nil {
		return nil, err
	}

	argon2Time, err := getEnvIntRange("ARGON2_TIME", 1, 1, maxArgon2Time)
	if err != nil {
		return nil, err
	}

	argon2MemoryKB, err := getEnvIntRange("ARGON2_MEMORY_KB", 64*1024, 1, maxArgon2MemoryKB)
	if err != nil {
		return nil, err
	}

	argon2Threads, err := getEnvIntRange("ARGON2_THREADS", 4, 1, maxArgon2Threads)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:         getEnvString("STORE_PATH", "infinity.db"),
			Origin:       getEnvString("CONTEXT_ID", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 1),
			BusyTimeout:  busyTimeout,
			PingTimeout:  pingTimeout,
			PollInterval: pollInterval,
		},
		Store: models.StoreConfig{
			Key:              getEnvString("STORE_KEY", DefaultStoreKey),
			OptimisticWrites: getEnvBool("OPTIMISTIC_WRITES", true),
			MaxRetries:       getEnvInt("WRITE_MAX_RETRIES", 3),
		},
		Auth: models.AuthConfig{
			SessionLifetime: sessionLifetime,
			WelcomeBonus:    int64(getEnvInt("WELCOME_BONUS", DefaultWelcomeBonus)),
			Argon2Time:      uint32(argon2Time),
			Argon2MemoryKB:  uint32(argon2MemoryKB),
			Argon2Threads:   uint8(argon2Threads),
		},
		Ledger: models.LedgerConfig{
			RatesFile: getEnvString("RATES_FILE", "rates.yaml"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *models.Config) error {
	if cfg.Store.Key == "" {
		return fmt.Errorf("STORE_KEY cannot be empty")
	}
	if cfg.Store.MaxRetries < 0 {
		return fmt.Errorf("WRITE_MAX_RETRIES cannot be negative, got %d", cfg.Store.MaxRetries)
	}
	if cfg.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive, got %v", cfg.Auth.SessionLifetime)
	}
	if cfg.Auth.WelcomeBonus < 0 || cfg.Auth.WelcomeBonus > models.MaxAmount {
		return fmt.Errorf("WELCOME_BONUS out of range: %d", cfg.Auth.WelcomeBonus)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvIntRange is getEnvInt for values that must lie in [min, max]. A set
// value that is not an integer or falls outside the range is an error.
func getEnvIntRange(key string, defaultValue, min, max int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
	}
	if intValue < min || intValue > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, min, max, intValue)
	}
	return intValue, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
