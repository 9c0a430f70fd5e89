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

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	username := flag.String("username", "", "Username (at least 3 characters)")
	password := flag.String("password", "", "Password (at least 6 characters), \"-\" to read stdin (default $LOGIN_PASSWORD)")
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

	secret, err := common.NewPasswordSource(os.Stdin).Resolve(*password, common.PasswordEnv)
	if err != nil {
		logger.Fatal("Failed to read password", zap.Error(err))
	}

	err = services.AuthService.Register(ctx, *username, secret)
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDuplicateUser):
		fmt.Printf("✗ Registration failed: %v\n", err)
		services.Close()
		os.Exit(1)
	case err != nil:
		logger.Fatal("Registration failed", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("Username:      %s\n", *username)
	fmt.Printf("Welcome bonus: %s\n", common.FormatAmount(cfg.Auth.WelcomeBonus, models.PrimaryCurrency))
	common.PrintFooter("Run login to start a session", common.DefaultWidth)
}
