package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/common"
	"infinity-ledger-go/internal/config"
	"infinity-ledger-go/internal/models"

	"go.uber.org/zap"
)

// preferenceFlags collects repeated -pref key=value flags
type preferenceFlags map[string]string

func (p preferenceFlags) String() string { return fmt.Sprint(map[string]string(p)) }

func (p preferenceFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	p[key] = val
	return nil
}

func refuse(services *common.Services, err error) {
	fmt.Printf("✗ %v\n", err)
	services.Close()
	os.Exit(1)
}

func isRefusal(err error) bool {
	return errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotAuthenticated) ||
		errors.Is(err, models.ErrInvalidCredentials)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	displayName := flag.String("display-name", "", "New display name")
	avatar := flag.String("avatar", "", "New avatar")
	prefs := preferenceFlags{}
	flag.Var(prefs, "pref", "Set a preference as key=value (repeatable, empty value removes)")
	unlock := flag.String("unlock", "", "Unlock an achievement")
	listSessions := flag.Bool("sessions", false, "List recorded sessions")
	oldPassword := flag.String("old-password", "", "Current password, \"-\" to read stdin (default $LOGIN_PASSWORD)")
	newPassword := flag.String("new-password", "", "Change the password and revoke other sessions, \"-\" to read stdin (default $LOGIN_NEW_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := common.RequireAccount(ctx, services, logger)
	if err != nil {
		refuse(services, err)
	}

	update := auth.ProfileUpdate{Preferences: prefs}
	if *displayName != "" {
		update.DisplayName = displayName
	}
	if *avatar != "" {
		update.Avatar = avatar
	}
	if update.DisplayName != nil || update.Avatar != nil || len(prefs) > 0 {
		account, err = services.AuthService.UpdateProfile(ctx, update)
		if isRefusal(err) {
			refuse(services, err)
		}
		if err != nil {
			logger.Fatal("Profile update failed", zap.Error(err))
		}
		fmt.Println("✓ Profile updated")
	}

	if *unlock != "" {
		added, err := services.AuthService.UnlockAchievement(ctx, *unlock)
		if isRefusal(err) {
			refuse(services, err)
		}
		if err != nil {
			logger.Fatal("Failed to unlock achievement", zap.Error(err))
		}
		if added {
			fmt.Printf("✓ Achievement unlocked: %s\n", *unlock)
		} else {
			fmt.Printf("~ Achievement already unlocked: %s\n", *unlock)
		}
	}

	if *newPassword != "" || os.Getenv(common.NewPasswordEnv) != "" {
		// stdin supplies the current password before the new one
		passwords := common.NewPasswordSource(os.Stdin)
		current, err := passwords.Resolve(*oldPassword, common.PasswordEnv)
		if err != nil {
			logger.Fatal("Failed to read current password", zap.Error(err))
		}
		replacement, err := passwords.Resolve(*newPassword, common.NewPasswordEnv)
		if err != nil {
			logger.Fatal("Failed to read new password", zap.Error(err))
		}

		err = services.AuthService.ChangePassword(ctx, current, replacement)
		if isRefusal(err) {
			refuse(services, err)
		}
		if err != nil {
			logger.Fatal("Password change failed", zap.Error(err))
		}
		fmt.Println("✓ Password changed, other sessions revoked")
	}

	common.PrintHeader(fmt.Sprintf("ACCOUNT: %s", account.Username), common.DefaultWidth)
	fmt.Printf("Display name: %s\n", account.Profile.DisplayName)
	if account.Profile.Avatar != "" {
		fmt.Printf("Avatar:       %s\n", account.Profile.Avatar)
	}
	for key, value := range account.Profile.Preferences {
		fmt.Printf("Preference:   %s=%s\n", key, value)
	}

	achievements, err := services.AuthService.Achievements(ctx)
	if err != nil {
		logger.Fatal("Failed to read achievements", zap.Error(err))
	}
	fmt.Printf("Achievements: %d\n", len(achievements))
	for i, a := range achievements {
		fmt.Printf("%s %s\n", common.BoxPrefix(i == len(achievements)-1), a)
	}

	if *listSessions {
		sessions, err := services.AuthService.Sessions(ctx)
		if err != nil {
			logger.Fatal("Failed to read sessions", zap.Error(err))
		}
		fmt.Printf("Sessions:     %d\n", len(sessions))
		for i, s := range sessions {
			fmt.Printf("%s %s  login %s  active %s  %s\n",
				common.BoxPrefix(i == len(sessions)-1),
				s.Token[:8],
				s.LoginTime.Local().Format("2006-01-02 15:04"),
				s.LastActive.Local().Format("2006-01-02 15:04"),
				s.DeviceFingerprint)
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
