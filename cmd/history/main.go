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

func printRecord(record models.TransactionRecord, isLast bool) {
	counterpart := record.Counterpart
	if counterpart == "" {
		counterpart = "-"
	}
	fmt.Printf("%s %s  %-8s %14s  %-12s %s\n",
		common.BoxPrefix(isLast),
		record.Timestamp.Local().Format("2006-01-02 15:04:05"),
		record.Kind,
		common.FormatAmount(record.Amount, record.Currency),
		counterpart,
		record.Description)
	fmt.Printf("%s   %s\n", common.BoxDetailPrefix(isLast), record.Id)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	currency := flag.String("currency", "", "Filter by currency (optional)")
	limit := flag.Int("limit", 20, "Number of transactions to show (1-100)")
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
		logger.Fatal("No active session", zap.Error(err))
	}

	records, err := services.LedgerService.History(ctx, *currency, *limit)
	if err != nil {
		logger.Fatal("Failed to load history", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("TRANSACTION HISTORY: %s", account.Username), common.WideWidth)
	for i, record := range records {
		printRecord(record, i == len(records)-1)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d entries (%d transactions on record)", len(records), account.TransactionCount), common.WideWidth)

	if err := services.WalletService.Reconcile(ctx); err != nil {
		fmt.Printf("⚠ %v\n", err)
	}
}
