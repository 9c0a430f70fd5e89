package auth

import (
	"context"
	"testing"

	"infinity-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T) *Service {
	t.Helper()
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "secret1"))
	_, err := svc.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)
	return svc
}

func TestUnlockAchievement_IsIdempotent(t *testing.T) {
	svc := signedIn(t)
	ctx := context.Background()

	added, err := svc.UnlockAchievement(ctx, "first-earn")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.UnlockAchievement(ctx, "first-earn")
	require.NoError(t, err)
	assert.False(t, added)

	achievements, err := svc.Achievements(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first-earn"}, achievements)
}

func TestUnlockAchievement_RequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UnlockAchievement(context.Background(), "first-earn")
	require.ErrorIs(t, err, models.ErrNotAuthenticated)

	achievements, err := svc.Achievements(context.Background())
	require.NoError(t, err)
	assert.Empty(t, achievements)
}

func TestUpdateProfile(t *testing.T) {
	svc := signedIn(t)
	ctx := context.Background()

	name, avatar := "Alice A.", "owl"
	account, err := svc.UpdateProfile(ctx, ProfileUpdate{
		DisplayName: &name,
		Avatar:      &avatar,
		Preferences: map[string]string{"theme": "dark", "lang": "en"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", account.Profile.DisplayName)
	assert.Equal(t, "owl", account.Profile.Avatar)

	account, err = svc.UpdateProfile(ctx, ProfileUpdate{Preferences: map[string]string{"lang": ""}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark"}, account.Profile.Preferences)
	assert.Equal(t, "Alice A.", account.Profile.DisplayName)

	blank := " "
	_, err = svc.UpdateProfile(ctx, ProfileUpdate{DisplayName: &blank})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestChangePassword_RevokesOtherSessions(t *testing.T) {
	svc := signedIn(t)
	ctx := context.Background()
	_, err := svc.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)

	sessions, err := svc.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	err = svc.ChangePassword(ctx, "wrong-password", "new-secret")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, "secret1", "new-secret"))

	sessions, err = svc.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "the session that changed the password stays valid")

	_, err = svc.SignIn(ctx, "alice", "secret1")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "alice", "new-secret")
	require.NoError(t, err)
}

func TestChangePassword_UnreadableStoredHashIsRefused(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "alice", "secret1"))
	_, err := svc.SignIn(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, func(st *models.AuthStore) error {
		st.Users["alice"].PasswordHash = "$argon2id$v=19$m=64,t=1,p=0$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5"
		return nil
	}))

	require.NotPanics(t, func() {
		err = svc.ChangePassword(ctx, "secret1", "new-secret")
	})
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}
