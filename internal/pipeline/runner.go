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

// Package pipeline runs one load, top-up, report and write cycle.
package pipeline

import (
	"context"
	"fmt"

	"token-topup-go/internal/loader"
	"token-topup-go/internal/models"
	"token-topup-go/internal/output"
	"token-topup-go/internal/report"
	"token-topup-go/internal/store"
	"token-topup-go/internal/topup"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Runner executes top-up runs. Ledger is optional; when nil no audit trail is kept.
type Runner struct {
	ledger   store.TopUpLedger
	newRunId func() string
}

func NewRunner(ledger store.TopUpLedger) *Runner {
	return &Runner{
		ledger:   ledger,
		newRunId: func() string { return uuid.New().String() },
	}
}

// Result is the outcome of a successful run
type Result struct {
	RunId      string
	Users      []models.User
	Companies  []models.Company
	Grants     []topup.Grant
	Report     string
	OutputPath string
}

// TotalGranted sums the tokens actually added in the run
func (r *Result) TotalGranted() int64 {
	var total int64
	for _, g := range r.Grants {
		total += g.Amount
	}
	return total
}

// Run loads the datasets, applies top-ups, writes the report and then records
// the grants in the ledger. Load, write and ledger failures abort the run.
func (r *Runner) Run(ctx context.Context, files models.FilesConfig) (*Result, error) {
	runId := r.newRunId()
	logger := zap.L().With(zap.String("run_id", runId))
	logger.Info("Starting top-up run",
		zap.String("users_file", files.UsersFile),
		zap.String("companies_file", files.CompaniesFile),
		zap.String("output_file", files.OutputFile))

	dataset, err := loader.Load(ctx, files.UsersFile, files.CompaniesFile)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}

	grants := topup.Plan(dataset.Users, dataset.Companies)
	users := topup.ApplyTopUps(dataset.Users, dataset.Companies)
	text := report.FormatReport(users, dataset.Companies)

	if err := output.WriteReport(files.OutputFile, text); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	if r.ledger != nil {
		if err := r.recordGrants(ctx, runId, grants); err != nil {
			return nil, fmt.Errorf("ledger failed: %w", err)
		}
	}

	result := &Result{
		RunId:      runId,
		Users:      users,
		Companies:  dataset.Companies,
		Grants:     grants,
		Report:     text,
		OutputPath: files.OutputFile,
	}

	logger.Info("Top-up run completed",
		zap.Int("users", len(users)),
		zap.Int("companies", len(dataset.Companies)),
		zap.Int("grants", len(grants)),
		zap.Int64("tokens_granted", result.TotalGranted()),
		zap.Bool("ledger", r.ledger != nil))

	return result, nil
}

// recordGrants stores the run's grants in one ledger batch, so a failure leaves no partial audit.
func (r *Runner) recordGrants(ctx context.Context, runId string, grants []topup.Grant) error {
	if len(grants) == 0 {
		return nil
	}

	params := make([]store.TopUpParams, 0, len(grants))
	for _, g := range grants {
		params = append(params, store.TopUpParams{
			RunId:        runId,
			Position:     g.Position,
			UserId:       store.AccountId(g.UserId),
			CompanyId:    store.AccountId(g.CompanyId),
			CompanyName:  g.CompanyName,
			Amount:       decimal.NewFromInt(g.Amount),
			TokensBefore: g.TokensBefore,
			TokensAfter:  g.TokensAfter,
		})
	}

	_, err := r.ledger.RecordTopUps(ctx, params)
	return err
}
