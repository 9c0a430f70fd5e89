package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ProfileUpdate carries the fields to change. Nil fields are left alone and a
// preference set to "" is removed.
type ProfileUpdate struct {
	DisplayName *string
	Avatar      *string
	Preferences map[string]string
}

func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.Account, error) {
	if update.DisplayName != nil && strings.TrimSpace(*update.DisplayName) == "" {
		return nil, &models.ValidationError{Field: "displayName", Reason: "cannot be empty"}
	}

	var account *models.Account
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		p, err := s.Resolve(st)
		if err != nil {
			return err
		}

		profile := &p.User.Profile
		if update.DisplayName != nil {
			profile.DisplayName = strings.TrimSpace(*update.DisplayName)
		}
		if update.Avatar != nil {
			profile.Avatar = *update.Avatar
		}
		if profile.Preferences == nil {
			profile.Preferences = make(map[string]string)
		}
		for k, v := range update.Preferences {
			if v == "" {
				delete(profile.Preferences, k)
			} else {
				profile.Preferences[k] = v
			}
		}
		p.Session.LastActive = s.now()

		account = NewAccount(p.Username, p.User)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Profile updated", zap.String("username", account.Username))
	return account, nil
}

// UnlockAchievement adds id to the current user's achievements. It reports
// false without writing when the achievement was already unlocked.
func (s *Service) UnlockAchievement(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, &models.ValidationError{Field: "achievement", Reason: "cannot be empty"}
	}

	added := false
	var username string
	err := s.repo.Update(ctx, func(st *models.AuthStore) error {
		added = false
		p, err := s.Resolve(st)
		if err != nil {
			return err
		}
		if slices.Contains(p.User.Achievements, id) {
			return store.ErrUnchanged
		}
		p.User.Achievements = append(p.User.Achievements, id)
		username = p.Username
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if added {
		zap.L().Info("Achievement unlocked", zap.String("username", username), zap.String("achievement", id))
	}
	return added, nil
}

// Achievements returns the current user's achievements, empty when signed out.
func (s *Service) Achievements(ctx context.Context) ([]string, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.Resolve(st)
	if err != nil {
		return []string{}, nil
	}
	return append([]string{}, p.User.Achievements...), nil
}

// Sessions lists the current user's recorded sessions, oldest first.
func (s *Service) Sessions(ctx context.Context) ([]models.Session, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.Resolve(st)
	if err != nil {
		return []models.Session{}, nil
	}
	return append([]models.Session{}, p.User.Sessions...), nil
}

// ChangePassword replaces the current user's password and revokes every other
// session of that user.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return &models.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	st, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	p, err := s.Resolve(st)
	if err != nil {
		return err
	}
	verifiedHash := p.User.PasswordHash
	if ok, _, _ := s.hasher.Verify(oldPassword, verifiedHash); !ok {
		zap.L().Warn("Password change refused", zap.String("username", p.Username))
		return models.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var revoked int
	err = s.repo.Update(ctx, func(st *models.AuthStore) error {
		p, err := s.Resolve(st)
		if err != nil {
			return err
		}
		if p.User.PasswordHash != verifiedHash {
			return models.ErrInvalidCredentials
		}

		current := *p.Session
		current.LastActive = s.now()
		revoked = len(p.User.Sessions) - 1
		p.User.Sessions = []models.Session{current}
		p.User.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Password changed",
		zap.String("username", p.Username),
		zap.Int("revoked_sessions", revoked))
	return nil
}
