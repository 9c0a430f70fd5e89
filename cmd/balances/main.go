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

	"infinity-ledger-go/internal/common"
	"infinity-ledger-go/internal/config"
	"infinity-ledger-go/internal/models"

	"go.uber.org/zap"
)

func printBalance(balance models.UserBalance, isLast bool) {
	fmt.Printf("%s %-10s: %16s  (worth %s)\n",
		common.BoxPrefix(isLast),
		balance.Currency,
		common.FormatAmount(balance.Balance, balance.Currency),
		common.FormatValue(balance.Value))
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	showRates := flag.Bool("rates", false, "Also print the exchange-rate table")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Opening store", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if _, err := common.RequireAccount(ctx, services, logger); err != nil {
		logger.Fatal("No active session", zap.Error(err))
	}

	report, err := services.LedgerService.Balances(ctx)
	if err != nil {
		logger.Fatal("Failed to load balances", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)
	fmt.Printf("\n┌─ User: %s\n", report.Username)
	common.PrintBoxSeparator(78)
	for i, balance := range report.Balances {
		printBalance(balance, i == len(report.Balances)-1)
	}

	if *showRates {
		rates := services.WalletService.Rates()
		fmt.Printf("\n┌─ Rates (in %s)\n", models.PrimaryCurrency)
		common.PrintBoxSeparator(78)
		for i, c := range models.Currencies {
			fmt.Printf("%s %-10s: %s\n", common.BoxPrefix(i == len(models.Currencies)-1), c, rates[c].String())
		}
	}

	common.PrintFooter(fmt.Sprintf("TOTAL VALUE: %s", common.FormatValue(report.TotalValue)), common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.String("username", report.Username),
		zap.String("total_value", report.TotalValue.String()))
}
