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

	currency := flag.String("currency", string(models.PrimaryCurrency), "Currency to debit (infinity, research, art, music)")
	amount := flag.Int64("amount", 0, "Whole number of tokens to spend")
	target := flag.String("target", "", "What the tokens were spent on")
	description := flag.String("description", "", "Transaction description")
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

	result, err := services.LedgerService.Spend(ctx, *currency, *amount, *target, *description)
	if err != nil {
		logger.Fatal("Spend failed", zap.Error(err))
	}
	if !result.Success {
		fmt.Printf("✗ Spend refused: %s\n", result.Error)
		services.Close()
		os.Exit(1)
	}

	tx := result.Transaction
	fmt.Printf("✓ Spent %s (balance %s)\n",
		common.FormatAmount(tx.Amount, tx.Currency),
		common.FormatAmount(result.NewBalance, tx.Currency))
	fmt.Printf("  Transaction: %s\n", tx.Id)
}
