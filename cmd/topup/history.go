package main

import (
	"context"
	"fmt"
	"io"

	"token-topup-go/internal/common"
	"token-topup-go/internal/models"
	"token-topup-go/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyUser  string
	historyLimit int
)

type historyStats struct {
	accounts     int
	transactions int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show granted-token balances and top-up history from the ledger",
	RunE:  runHistory,
}

func formatRunId(runId string) string {
	if len(runId) > 8 {
		return runId[:8] + "..."
	}
	return runId
}

func printTransaction(w io.Writer, tx models.Transaction, isLast bool) {
	fmt.Fprintf(w, "%s %s  +%-8s tokens %d -> %d (run: %s, company: %s)\n",
		common.BoxPrefix(isLast),
		tx.CreatedAt.Format("2006-01-02 15:04:05"),
		tx.Amount.String(),
		tx.TokensBefore,
		tx.TokensAfter,
		formatRunId(tx.RunId),
		tx.CompanyId)
}

func printAccountHeader(w io.Writer, account models.AccountBalance, txCount int) {
	fmt.Fprintf(w, "\n┌─ User: %s\n", account.UserId)
	fmt.Fprintf(w, "│  Granted: %s\n", account.Balance.String())
	fmt.Fprintf(w, "│  Top-ups shown: %d\n", txCount)
	common.PrintBoxSeparator(w, 78)
}

func processAccount(ctx context.Context, w io.Writer, ledger store.TopUpLedger, account models.AccountBalance, limit int) (int, error) {
	history, err := ledger.GetTransactionHistory(ctx, account.UserId, limit, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to get history: %w", err)
	}

	printAccountHeader(w, account, len(history))
	for i, tx := range history {
		printTransaction(w, tx, i == len(history)-1)
	}
	return len(history), nil
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	accounts, err := common.LedgerAccounts(ctx, ledger, historyUser, logger)
	if err != nil {
		return err
	}

	common.PrintHeader(w, "TOP-UP LEDGER", common.DefaultWidth)

	stats := historyStats{}
	for _, account := range accounts {
		count, err := processAccount(ctx, w, ledger, account, historyLimit)
		if err != nil {
			logger.Error("Failed to process account",
				zap.String("user_id", account.UserId),
				zap.Error(err))
			continue
		}
		stats.accounts++
		stats.transactions += count
	}

	common.PrintFooter(w, fmt.Sprintf("SUMMARY: %d accounts, %d top-ups shown", stats.accounts, stats.transactions), common.DefaultWidth)

	logger.Info("Ledger history completed",
		zap.Int("accounts", stats.accounts),
		zap.Int("transactions", stats.transactions))
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&historyUser, "user", "", "Filter by user id (optional)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum top-ups shown per user")
}
