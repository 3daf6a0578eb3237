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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"token-topup-go/internal/models"
	"token-topup-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.TopUpLedger.
var _ store.TopUpLedger = (*Service)(nil)

type Service struct {
	db        *sql.DB
	subledger *SubledgerService
}

func NewService(ctx context.Context, cfg models.LedgerConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite ledger", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open ledger: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close ledger after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping ledger: %w", err)
	}

	service := newServiceWithDB(db)
	if err := service.subledger.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close ledger after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize ledger schema: %w", err)
	}

	zap.L().Info("Ledger service initialized successfully")
	return service, nil
}

func newServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db, subledger: NewSubledgerService(db)}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close ledger connection", zap.Error(err))
	}
}

// RecordTopUps stores every grant of a run in one database transaction.
// Each input position can be granted at most once per run; a repeated
// (run, position) pair fails with store.ErrDuplicateTransaction and nothing is stored.
func (s *Service) RecordTopUps(ctx context.Context, params []store.TopUpParams) ([]models.Transaction, error) {
	batch := make([]ProcessTransactionParams, 0, len(params))
	for _, p := range params {
		if p.RunId == "" || p.UserId == "" {
			return nil, fmt.Errorf("run_id and user_id are required")
		}
		batch = append(batch, ProcessTransactionParams{
			RunId:           p.RunId,
			UserId:          p.UserId,
			CompanyId:       p.CompanyId,
			TransactionType: transactionTypeTopUp,
			Amount:          p.Amount,
			TokensBefore:    p.TokensBefore,
			TokensAfter:     p.TokensAfter,
			ExternalTxId:    p.ExternalId(),
			Reference:       fmt.Sprintf("TOP_UP: %s tokens from %s", p.Amount.String(), p.CompanyName),
		})
	}

	transactions, err := s.subledger.ProcessTransactions(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("error recording top-ups: %w", err)
	}
	return transactions, nil
}

// RecordTopUp stores a single grant
func (s *Service) RecordTopUp(ctx context.Context, params store.TopUpParams) (*models.Transaction, error) {
	transactions, err := s.RecordTopUps(ctx, []store.TopUpParams{params})
	if err != nil {
		return nil, err
	}
	return &transactions[0], nil
}

func (s *Service) GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	return s.subledger.GetBalance(ctx, userId)
}

func (s *Service) GetAllBalances(ctx context.Context) ([]models.AccountBalance, error) {
	return s.subledger.GetAllBalances(ctx)
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return s.subledger.GetTransactionHistory(ctx, userId, limit, offset)
}

func (s *Service) ReconcileUserBalance(ctx context.Context, userId string) error {
	return s.subledger.ReconcileBalance(ctx, userId)
}
