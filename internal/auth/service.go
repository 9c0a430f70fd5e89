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

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	welcomeSource      = "system"
	welcomeDescription = "Welcome bonus"
)

// errSessionExpired marks a session that exists but outlived its lifetime.
var errSessionExpired = fmt.Errorf("%w: session expired", models.ErrNotAuthenticated)

type Config struct {
	SessionLifetime time.Duration
	WelcomeBonus    int64
	Hasher          PasswordHasher
	// Fingerprint identifies the device of this context. Empty uses LocalFingerprint.
	Fingerprint string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Service manages registration and the single current session of a store.
type Service struct {
	repo        *store.Repository
	lifetime    time.Duration
	bonus       int64
	hasher      PasswordHasher
	fingerprint string
	now         func() time.Time
}

// Principal is the user resolved from a valid current session.
type Principal struct {
	Username string
	User     *models.User
	Session  *models.Session
}

func NewService(repo *store.Repository, cfg Config) *Service {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	fingerprint := cfg.Fingerprint
	if fingerprint == "" {
		fingerprint = LocalFingerprint()
	}
	return &Service{
		repo:        repo,
		lifetime:    cfg.SessionLifetime,
		bonus:       cfg.WelcomeBonus,
		hasher:      cfg.Hasher,
		fingerprint: fingerprint,
		now:         func() time.Time { return now().UTC() },
	}
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLength {
		return &models.ValidationError{Field: "username", Reason: fmt.Sprintf("must be at least %d characters", minUsernameLength)}
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return &models.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	// argon2 runs once, outside the retry loop
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.repo.Update(ctx, func(st *models.AuthStore) error {
		if _, exists := st.Users[username]; exists {
			return fmt.Errorf("%w: %s", models.ErrDuplicateUser, username)
		}

		now := s.now()
		user := &models.User{
			PasswordHash:  hash,
			CreatedAt:     now,
			IpFingerprint: s.fingerprint,
			Wallet:        models.NewWallet(),
			Profile: models.Profile{
				DisplayName: username,
				Preferences: make(map[string]string),
			},
			Transactions: []models.Transaction{},
			Achievements: []string{},
			Sessions:     []models.Session{},
		}
		if s.bonus > 0 {
			user.Wallet[models.PrimaryCurrency] = s.bonus
			user.Transactions = append(user.Transactions, models.Transaction{
				Id:           models.NewTransactionId(now),
				Kind:         models.KindEarn,
				Amount:       s.bonus,
				Currency:     models.PrimaryCurrency,
				Source:       welcomeSource,
				Description:  welcomeDescription,
				Timestamp:    now,
				BalanceAfter: s.bonus,
			})
		}
		st.Users[username] = user
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			zap.L().Warn("Registration refused, username taken", zap.String("username", username))
		}
		return err
	}

	zap.L().Info("User registered",
		zap.String("username", username),
		zap.Int64("welcome_bonus", s.bonus))
	return nil
}

func (s *Service) SignIn(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)

	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	user, exists := st.Users[username]
	if !exists {
		zap.L().Warn("Sign-in refused", zap.String("username", username))
		return nil, models.ErrInvalidCredentials
	}

	verifiedHash := user.PasswordHash
	ok, legacy, err := s.hasher.Verify(password, verifiedHash)
	if err != nil {
		zap.L().Error("Stored password hash is unreadable", zap.String("username", username), zap.Error(err))
	}
	if !ok {
		zap.L().Warn("Sign-in refused", zap.String("username", username))
		return nil, models.ErrInvalidCredentials
	}

	var upgraded string
	if legacy || s.hasher.NeedsRehash(verifiedHash) {
		if upgraded, err = s.hasher.Hash(password); err != nil {
			return nil, fmt.Errorf("failed to rehash password: %w", err)
		}
	}

	token := uuid.New().String()
	var account *models.Account
	err = s.repo.Update(ctx, func(st *models.AuthStore) error {
		user, exists := st.Users[username]
		// the password may have changed in another context since it was verified
		if !exists || user.PasswordHash != verifiedHash {
			return models.ErrInvalidCredentials
		}

		now := s.now()
		user.Sessions = s.liveSessions(user.Sessions, now)
		user.Sessions = append(user.Sessions, models.Session{
			Token:             token,
			LoginTime:         now,
			LastActive:        now,
			DeviceFingerprint: s.fingerprint,
		})
		user.LastLogin = now
		if upgraded != "" {
			user.PasswordHash = upgraded
		}

		st.CurrentSession = &models.CurrentSession{
			Username:      username,
			Token:         token,
			LoginTime:     now,
			ActiveContext: s.repo.KV().Origin(),
		}
		account = NewAccount(username, user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User signed in",
		zap.String("username", username),
		zap.String("context", s.repo.KV().Origin()),
		zap.Bool("hash_upgraded", upgraded != ""))
	return account, nil
}

// SignOut clears the current session. The user's session history is kept.
func (s *Service) SignOut(ctx context.Context) error {
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		if st.CurrentSession == nil {
			return store.ErrUnchanged
		}
		username = st.CurrentSession.Username
		st.CurrentSession = nil
		return nil
	})
	if err != nil {
		return err
	}
	if username != "" {
		zap.L().Info("User signed out", zap.String("username", username))
	}
	return nil
}

// CurrentUser returns the signed-in account, or nil. An expired session is
// cleared from the store.
func (s *Service) CurrentUser(ctx context.Context) (*models.Account, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.Resolve(st)
	if err == nil {
		return NewAccount(p.Username, p.User), nil
	}
	if errors.Is(err, errSessionExpired) {
		if err := s.expire(ctx, st.CurrentSession.Token); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	account, err := s.CurrentUser(ctx)
	return account != nil, err
}

// Resolve finds the user behind the current session of st.
func (s *Service) Resolve(st *models.AuthStore) (*Principal, error) {
	cs := st.CurrentSession
	if cs == nil {
		return nil, models.ErrNotAuthenticated
	}
	if s.now().Sub(cs.LoginTime) > s.lifetime {
		return nil, errSessionExpired
	}

	user, exists := st.Users[cs.Username]
	if !exists {
		return nil, models.ErrNotAuthenticated
	}
	for i := range user.Sessions {
		if user.Sessions[i].Token == cs.Token {
			return &Principal{Username: cs.Username, User: user, Session: &user.Sessions[i]}, nil
		}
	}
	// the session was revoked from another context
	return nil, models.ErrNotAuthenticated
}

func (s *Service) expire(ctx context.Context, token string) error {
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		cs := st.CurrentSession
		if cs == nil || cs.Token != token || s.now().Sub(cs.LoginTime) <= s.lifetime {
			return store.ErrUnchanged
		}
		username = cs.Username
		st.CurrentSession = nil
		return nil
	})
	if err != nil {
		return err
	}
	if username != "" {
		zap.L().Info("Session expired", zap.String("username", username))
	}
	return nil
}

func (s *Service) liveSessions(sessions []models.Session, now time.Time) []models.Session {
	live := make([]models.Session, 0, len(sessions)+1)
	for _, session := range sessions {
		if now.Sub(session.LoginTime) <= s.lifetime {
			live = append(live, session)
		}
	}
	return live
}

// NewAccount builds the public view of a user record.
func NewAccount(username string, user *models.User) *models.Account {
	preferences := make(map[string]string, len(user.Profile.Preferences))
	for k, v := range user.Profile.Preferences {
		preferences[k] = v
	}
	return &models.Account{
		Username: username,
		Profile: models.Profile{
			DisplayName: user.Profile.DisplayName,
			Avatar:      user.Profile.Avatar,
			Preferences: preferences,
		},
		Wallet:           user.Wallet.Clone(),
		Achievements:     append([]string{}, user.Achievements...),
		CreatedAt:        user.CreatedAt,
		LastLogin:        user.LastLogin,
		TransactionCount: len(user.Transactions),
	}
}
