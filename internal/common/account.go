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

package common

import (
	"context"
	"fmt"

	"infinity-ledger-go/internal/models"

	"go.uber.org/zap"
)

// RequireAccount returns the signed-in account for command-line utilities,
// or an error telling the user how to sign in.
func RequireAccount(ctx context.Context, services *Services, logger *zap.Logger) (*models.Account, error) {
	account, err := services.AuthService.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: run login first", models.ErrNotAuthenticated)
	}

	logger.Info("Resolved current user",
		zap.String("username", account.Username),
		zap.Int("transactions", account.TransactionCount))
	return account, nil
}
