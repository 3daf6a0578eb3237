package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-topup-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProcessTransactionParams contains the parameters for processing a transaction
type ProcessTransactionParams struct {
	RunId           string
	UserId          string
	CompanyId       string
	TransactionType string
	Amount          decimal.Decimal
	TokensBefore    int64
	TokensAfter     int64
	ExternalTxId    string
	Reference       string
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// ProcessTransaction atomically updates the granted balance and records the transaction
func (s *SubledgerService) ProcessTransaction(ctx context.Context, params ProcessTransactionParams) (*models.Transaction, error) {
	transactions, err := s.ProcessTransactions(ctx, []ProcessTransactionParams{params})
	if err != nil {
		return nil, err
	}
	return &transactions[0], nil
}

// ProcessTransactions applies a batch in a single database transaction.
// If any entry fails the whole batch is rolled back.
func (s *SubledgerService) ProcessTransactions(ctx context.Context, batch []ProcessTransactionParams) ([]models.Transaction, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transactions := make([]models.Transaction, 0, len(batch))
	for _, params := range batch {
		transaction, err := s.processInTx(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Transaction batch committed", zap.Int("transactions", len(transactions)))
	return transactions, nil
}

func (s *SubledgerService) processInTx(ctx context.Context, tx *sql.Tx, params ProcessTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Processing transaction",
		zap.String("run_id", params.RunId),
		zap.String("user_id", params.UserId),
		zap.String("company_id", params.CompanyId),
		zap.String("type", params.TransactionType),
		zap.String("amount", params.Amount.String()),
		zap.String("external_tx_id", params.ExternalTxId))

	if params.ExternalTxId == "" {
		return nil, fmt.Errorf("external transaction id is required")
	}

	// Check for duplicate external transaction Id, including earlier rows of this batch
	var existingTxId string
	err := tx.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalTxId).Scan(&existingTxId)
	if err == nil {
		zap.L().Warn("Duplicate external transaction Id detected, skipping",
			zap.String("external_tx_id", params.ExternalTxId),
			zap.String("existing_internal_tx_id", existingTxId))
		return nil, fmt.Errorf("%w: external_transaction_id %s already exists", ErrDuplicateTransaction, params.ExternalTxId)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	var currentBalanceStr string
	var accountId string
	var version int64

	err = tx.QueryRowContext(ctx, queryGetAccountBalance, params.UserId).Scan(&accountId, &currentBalanceStr, &version)

	var currentBalance decimal.Decimal
	if errors.Is(err, sql.ErrNoRows) {
		accountId = uuid.New().String()
		currentBalance = decimal.Zero
		version = 1

		_, err = tx.ExecContext(ctx, queryInsertAccountBalance, accountId, params.UserId, "0", 1)
		if err != nil {
			return nil, fmt.Errorf("failed to create account balance: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get current balance: %w", err)
	} else {
		currentBalance, err = decimal.NewFromString(currentBalanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse current balance '%s': %w", currentBalanceStr, err)
		}
	}

	newBalance := currentBalance.Add(params.Amount)

	transactionId := uuid.New().String()
	transaction := &models.Transaction{}

	var amountStr, balanceBeforeStr, balanceAfterStr string
	err = tx.QueryRowContext(ctx, queryInsertTransaction,
		transactionId, params.RunId, params.UserId, params.CompanyId, params.TransactionType,
		params.Amount.String(), currentBalance.String(), newBalance.String(),
		params.TokensBefore, params.TokensAfter,
		params.ExternalTxId, params.Reference, "confirmed", time.Now()).
		Scan(&transaction.Id, &transaction.RunId, &transaction.UserId, &transaction.CompanyId, &transaction.TransactionType,
			&amountStr, &balanceBeforeStr, &balanceAfterStr,
			&transaction.TokensBefore, &transaction.TokensAfter,
			&transaction.ExternalTransactionId, &transaction.Reference,
			&transaction.Status, &transaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := parseAmounts(transaction, amountStr, balanceBeforeStr, balanceAfterStr); err != nil {
		return nil, err
	}

	// Optimistic locking on the account version
	result, err := tx.ExecContext(ctx, queryUpdateAccountBalance, newBalance.String(), transactionId, params.UserId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", ErrConcurrentModification)
	}

	if err := s.addJournalEntries(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	zap.L().Info("Transaction processed",
		zap.String("transaction_id", transactionId),
		zap.String("user_id", params.UserId),
		zap.String("old_balance", currentBalance.String()),
		zap.String("new_balance", newBalance.String()))

	return transaction, nil
}

// addJournalEntries creates double-entry bookkeeping entries.
// A top-up debits the user's token account and credits the funding company's pool.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	var entries []journalEntry

	switch transaction.TransactionType {
	case transactionTypeTopUp:
		entries = append(entries,
			journalEntry{"user_tokens", "user_" + transaction.UserId, transaction.Amount, decimal.Zero},
			journalEntry{"company_pool", "company_" + transaction.CompanyId, decimal.Zero, transaction.Amount},
		)
	}

	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transaction.Id, entry.accountType, entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String())
		if err != nil {
			return err
		}
	}

	return nil
}

// GetTransactionHistory returns paginated transaction history for a user, newest first
func (s *SubledgerService) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amountStr, balanceBeforeStr, balanceAfterStr string
		err := rows.Scan(&tx.Id, &tx.RunId, &tx.UserId, &tx.CompanyId, &tx.TransactionType,
			&amountStr, &balanceBeforeStr, &balanceAfterStr,
			&tx.TokensBefore, &tx.TokensAfter,
			&tx.ExternalTransactionId, &tx.Reference,
			&tx.Status, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if err := parseAmounts(&tx, amountStr, balanceBeforeStr, balanceAfterStr); err != nil {
			return nil, err
		}

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

func parseAmounts(tx *models.Transaction, amountStr, balanceBeforeStr, balanceAfterStr string) error {
	var err error
	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	tx.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr)
	if err != nil {
		return fmt.Errorf("failed to parse balance before '%s': %w", balanceBeforeStr, err)
	}
	tx.BalanceAfter, err = decimal.NewFromString(balanceAfterStr)
	if err != nil {
		return fmt.Errorf("failed to parse balance after '%s': %w", balanceAfterStr, err)
	}
	return nil
}
