package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*SubledgerService, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	service := NewSubledgerService(db)

	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func topUpParams(userId string, amount int64, externalId string) ProcessTransactionParams {
	return ProcessTransactionParams{
		RunId:           "run1",
		UserId:          userId,
		CompanyId:       "1",
		TransactionType: transactionTypeTopUp,
		Amount:          decimal.NewFromInt(amount),
		TokensBefore:    96,
		TokensAfter:     96 + amount,
		ExternalTxId:    externalId,
	}
}

func TestProcessTransaction_TopUp(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	result, err := service.ProcessTransaction(ctx, topUpParams("2", 71, "run1:2"))
	if err != nil {
		t.Fatalf("ProcessTransaction failed: %v", err)
	}

	if result.UserId != "2" {
		t.Errorf("Expected userId 2, got %s", result.UserId)
	}
	if result.RunId != "run1" {
		t.Errorf("Expected runId run1, got %s", result.RunId)
	}
	if !result.Amount.Equal(decimal.NewFromInt(71)) {
		t.Errorf("Expected amount 71, got %s", result.Amount.String())
	}
	if !result.BalanceBefore.IsZero() {
		t.Errorf("Expected balance before 0, got %s", result.BalanceBefore.String())
	}
	if !result.BalanceAfter.Equal(decimal.NewFromInt(71)) {
		t.Errorf("Expected balance after 71, got %s", result.BalanceAfter.String())
	}
	if result.TokensBefore != 96 || result.TokensAfter != 167 {
		t.Errorf("Expected tokens 96 -> 167, got %d -> %d", result.TokensBefore, result.TokensAfter)
	}
	if result.Status != "confirmed" {
		t.Errorf("Expected status confirmed, got %s", result.Status)
	}
}

func TestProcessTransaction_Accumulates(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := service.ProcessTransaction(ctx, topUpParams("2", 71, "run1:2")); err != nil {
		t.Fatalf("First top-up failed: %v", err)
	}
	second := topUpParams("2", 71, "run2:2")
	second.RunId = "run2"
	result, err := service.ProcessTransaction(ctx, second)
	if err != nil {
		t.Fatalf("Second top-up failed: %v", err)
	}

	expected := decimal.NewFromInt(142)
	if !result.BalanceAfter.Equal(expected) {
		t.Errorf("Expected balance %s, got %s", expected.String(), result.BalanceAfter.String())
	}
}

func TestProcessTransaction_DuplicateHandling(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := topUpParams("2", 71, "run1:2")

	if _, err := service.ProcessTransaction(ctx, params); err != nil {
		t.Fatalf("First ProcessTransaction failed: %v", err)
	}

	_, err := service.ProcessTransaction(ctx, params)
	if err == nil {
		t.Fatalf("Expected duplicate transaction error, got nil")
	}
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("Expected duplicate transaction error, got: %v", err)
	}

	balance, err := service.GetBalance(ctx, "2")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(71)) {
		t.Errorf("Duplicate must not change balance, got %s", balance.String())
	}
}

func TestProcessTransaction_RequiresExternalId(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	if _, err := service.ProcessTransaction(context.Background(), topUpParams("2", 71, "")); err == nil {
		t.Fatal("Expected error for missing external transaction id")
	}
}

func TestProcessTransaction_WritesJournalEntries(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	result, err := service.ProcessTransaction(ctx, topUpParams("2", 71, "run1:2"))
	if err != nil {
		t.Fatalf("ProcessTransaction failed: %v", err)
	}

	var count int
	err = service.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journal_entries WHERE transaction_id = ?", result.Id).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count journal entries: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 journal entries, got %d", count)
	}
}

func TestProcessTransactions_SameUserTwiceInBatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	results, err := service.ProcessTransactions(ctx, []ProcessTransactionParams{
		topUpParams("0", 71, "run1:0:0"),
		topUpParams("0", 71, "run1:1:0"),
	})
	if err != nil {
		t.Fatalf("ProcessTransactions failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(results))
	}
	if !results[1].BalanceBefore.Equal(decimal.NewFromInt(71)) {
		t.Errorf("Expected second balance before 71, got %s", results[1].BalanceBefore.String())
	}

	balance, err := service.GetBalance(ctx, "0")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(142)) {
		t.Errorf("Expected balance 142, got %s", balance.String())
	}
}

func TestProcessTransactions_FailureRollsBackBatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	_, err := service.ProcessTransactions(ctx, []ProcessTransactionParams{
		topUpParams("2", 71, "run1:0:2"),
		topUpParams("5", 37, "run1:1:5"),
		topUpParams("2", 71, "run1:0:2"),
	})
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("Expected duplicate transaction error, got: %v", err)
	}

	var count int
	if err := service.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no transactions after rollback, got %d", count)
	}

	for _, userId := range []string{"2", "5"} {
		balance, err := service.GetBalance(ctx, userId)
		if err != nil {
			t.Fatalf("GetBalance failed: %v", err)
		}
		if !balance.IsZero() {
			t.Errorf("Expected zero balance for user %s, got %s", userId, balance.String())
		}
	}
}

func TestProcessTransactions_EmptyBatch(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	results, err := service.ProcessTransactions(context.Background(), nil)
	if err != nil {
		t.Fatalf("ProcessTransactions failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no transactions, got %d", len(results))
	}
}

func TestGetTransactionHistory(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []string{"run1:2", "run2:2", "run3:2"} {
		if _, err := service.ProcessTransaction(ctx, topUpParams("2", 10, id)); err != nil {
			t.Fatalf("ProcessTransaction %s failed: %v", id, err)
		}
	}
	if _, err := service.ProcessTransaction(ctx, topUpParams("3", 10, "run1:3")); err != nil {
		t.Fatalf("ProcessTransaction for other user failed: %v", err)
	}

	history, err := service.GetTransactionHistory(ctx, "2", 2, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}
	for _, tx := range history {
		if tx.UserId != "2" {
			t.Errorf("Expected only user 2 transactions, got user %s", tx.UserId)
		}
	}

	all, err := service.GetTransactionHistory(ctx, "2", 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 transactions, got %d", len(all))
	}
}
