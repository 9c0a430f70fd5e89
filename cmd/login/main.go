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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"infinity-ledger-go/internal/common"
	"infinity-ledger-go/internal/config"
	"infinity-ledger-go/internal/models"

	"go.uber.org/zap"
)

func printAccount(account *models.Account) {
	fmt.Printf("┌─ %s (%s)\n", account.Profile.DisplayName, account.Username)
	fmt.Printf("│  Member since: %s\n", account.CreatedAt.Format("2006-01-02"))
	fmt.Printf("│  Last login:   %s\n", account.LastLogin.Format("2006-01-02 15:04:05"))
	fmt.Printf("│  Transactions: %d\n", account.TransactionCount)
	for i, c := range models.Currencies {
		fmt.Printf("%s %-10s %s\n", common.BoxPrefix(i == len(models.Currencies)-1), c, common.FormatAmount(account.Wallet[c], c))
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	username := flag.String("username", "", "Username")
	password := flag.String("password", "", "Password, \"-\" to read stdin (default $LOGIN_PASSWORD)")
	logout := flag.Bool("logout", false, "End the current session instead of starting one")
	whoami := flag.Bool("whoami", false, "Show the signed-in user without changing the session")
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

	switch {
	case *logout:
		if err := services.AuthService.SignOut(ctx); err != nil {
			logger.Fatal("Sign-out failed", zap.Error(err))
		}
		fmt.Println("✓ Signed out")

	case *whoami:
		account, err := services.AuthService.CurrentUser(ctx)
		if err != nil {
			logger.Fatal("Failed to read session", zap.Error(err))
		}
		if account == nil {
			fmt.Println("No user signed in")
			return
		}
		printAccount(account)

	default:
		secret, err := common.NewPasswordSource(os.Stdin).Resolve(*password, common.PasswordEnv)
		if err != nil {
			logger.Fatal("Failed to read password", zap.Error(err))
		}
		account, err := services.AuthService.SignIn(ctx, *username, secret)
		if errors.Is(err, models.ErrInvalidCredentials) {
			fmt.Printf("✗ %v\n", err)
			services.Close()
			os.Exit(1)
		}
		if err != nil {
			logger.Fatal("Sign-in failed", zap.Error(err))
		}
		fmt.Println("✓ Signed in")
		printAccount(account)
	}
}
