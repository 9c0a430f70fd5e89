package common

import (
	"context"
	"log"
	"strings"

	"infinity-ledger-go/internal/api"
	"infinity-ledger-go/internal/auth"
	"infinity-ledger-go/internal/database"
	"infinity-ledger-go/internal/models"
	"infinity-ledger-go/internal/store"
	"infinity-ledger-go/internal/tabsync"
	"infinity-ledger-go/internal/wallet"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	Repository    *store.Repository
	AuthService   *auth.Service
	WalletService *wallet.Service
	LedgerService *api.LedgerService
	Sync          *tabsync.Syncer
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the store file as a new browsing context and wires
// the ledger on top of it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	rates, err := LoadRates(cfg.Ledger.RatesFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	repo := store.NewRepository(dbService, store.RepositoryConfig{
		Key:              cfg.Store.Key,
		OptimisticWrites: cfg.Store.OptimisticWrites,
		MaxRetries:       cfg.Store.MaxRetries,
	})

	authService := auth.NewService(repo, auth.Config{
		SessionLifetime: cfg.Auth.SessionLifetime,
		WelcomeBonus:    cfg.Auth.WelcomeBonus,
		Hasher: auth.PasswordHasher{
			Time:     cfg.Auth.Argon2Time,
			MemoryKB: cfg.Auth.Argon2MemoryKB,
			Threads:  cfg.Auth.Argon2Threads,
		},
	})

	walletService, err := wallet.NewService(repo, authService, rates)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	zap.L().Info("Ledger ready",
		zap.String("context", dbService.Origin()),
		zap.String("store_key", cfg.Store.Key),
		zap.Bool("optimistic_writes", cfg.Store.OptimisticWrites))

	return &Services{
		DbService:     dbService,
		Repository:    repo,
		AuthService:   authService,
		WalletService: walletService,
		LedgerService: api.NewLedgerService(repo, authService, walletService),
		Sync:          tabsync.New(dbService, cfg.Store.Key),
	}, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
