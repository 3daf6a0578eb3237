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
	"fmt"
	"os"
	"path/filepath"

	"token-topup-go/internal/common"
	"token-topup-go/internal/config"
	"token-topup-go/internal/models"
	"token-topup-go/internal/pipeline"
	"token-topup-go/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	debug bool

	usersFlag     string
	companiesFlag string
	outputFlag    string
	ledgerFlag    string

	cfg           *models.Config
	logger        *zap.Logger
	loggerCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "topup",
	Short: "Apply company token top-ups and write the company report",
	Long: `topup reads a users dataset and a companies dataset, adds each company's
top-up to its active users, and writes a report grouped by company.

Run without a subcommand to perform a run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cfg)

		logger, loggerCleanup = common.InitializeLogger(debug || cfg.Debug)
		return nil
	},
	RunE: runTopUp,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load datasets, apply top-ups and write the report",
	RunE:  runTopUp,
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&usersFlag, "users", "", "Users dataset (.json, .yaml) (default $USERS_FILE or users.json)")
	cmd.Flags().StringVar(&companiesFlag, "companies", "", "Companies dataset (.json, .yaml) (default $COMPANIES_FILE or companies.json)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Report destination (default $OUTPUT_FILE or output.txt)")
}

func applyFlagOverrides(cfg *models.Config) {
	if usersFlag != "" {
		cfg.Files.UsersFile = usersFlag
	}
	if companiesFlag != "" {
		cfg.Files.CompaniesFile = companiesFlag
	}
	if outputFlag != "" {
		cfg.Files.OutputFile = outputFlag
	}
	if ledgerFlag != "" {
		cfg.Ledger.Path = ledgerFlag
	}
}

func runTopUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ledgerService, err := common.InitializeLedger(ctx, cfg.Ledger)
	if err != nil {
		logger.Error("Failed to initialize ledger", zap.Error(err))
		return err
	}

	// keep the interface nil when the ledger is disabled
	var ledger store.TopUpLedger
	if ledgerService != nil {
		defer ledgerService.Close()
		ledger = ledgerService
	}

	result, err := pipeline.NewRunner(ledger).Run(ctx, cfg.Files)
	if err != nil {
		logger.Error("Error processing top-up run", zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Output file (%s) has been created.\n", filepath.Base(result.OutputPath))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ledgerFlag, "ledger", "", "SQLite audit ledger path (default $LEDGER_PATH, disabled when empty)")

	addRunFlags(rootCmd)
	addRunFlags(runCmd)

	rootCmd.AddCommand(runCmd, historyCmd, reconcileCmd)
}

func main() {
	err := rootCmd.Execute()
	if loggerCleanup != nil {
		loggerCleanup()
	}
	if err != nil {
		os.Exit(1)
	}
}
