package main

import (
	"errors"
	"fmt"

	"token-topup-go/internal/common"
	"token-topup-go/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reconcileUser string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Verify ledger balances against the sum of recorded top-ups",
	RunE:  runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if !cfg.Ledger.Enabled() {
		return fmt.Errorf("no ledger configured: set LEDGER_PATH or --ledger")
	}

	ledger, err := common.InitializeLedger(ctx, cfg.Ledger)
	if err != nil {
		logger.Error("Failed to initialize ledger", zap.Error(err))
		return err
	}
	defer ledger.Close()

	accounts, err := common.LedgerAccounts(ctx, ledger, reconcileUser, logger)
	if err != nil {
		return err
	}

	var mismatched int
	for _, account := range accounts {
		err := ledger.ReconcileUserBalance(ctx, account.UserId)
		switch {
		case err == nil:
			fmt.Fprintf(w, "✓ user %s: %s\n", account.UserId, account.Balance.String())
		case errors.Is(err, store.ErrBalanceMismatch):
			mismatched++
			fmt.Fprintf(w, "✗ user %s: %v\n", account.UserId, err)
		default:
			return fmt.Errorf("reconcile user %s: %w", account.UserId, err)
		}
	}

	if mismatched > 0 {
		return fmt.Errorf("%d of %d accounts failed reconciliation", mismatched, len(accounts))
	}
	logger.Info("Reconciliation completed", zap.Int("accounts", len(accounts)))
	return nil
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileUser, "user", "", "Reconcile a single user id (optional)")
}
