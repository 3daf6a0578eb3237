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

	"token-topup-go/internal/models"
	"token-topup-go/internal/store"

	"go.uber.org/zap"
)

// LedgerAccounts returns ledger balances for one user when userFilter is set,
// or every account with a non-zero granted balance otherwise.
func LedgerAccounts(ctx context.Context, ledger store.TopUpLedger, userFilter string, logger *zap.Logger) ([]models.AccountBalance, error) {
	var accounts []models.AccountBalance

	if userFilter != "" {
		logger.Info("Looking up ledger account", zap.String("user_id", userFilter))
		balance, err := ledger.GetUserBalance(ctx, userFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance for user %s: %w", userFilter, err)
		}
		accounts = append(accounts, models.AccountBalance{
			UserId:  userFilter,
			Balance: balance,
		})
	} else {
		all, err := ledger.GetAllBalances(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get balances: %w", err)
		}
		accounts = append(accounts, all...)
	}

	logger.Info("Retrieved ledger accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
