package common

import (
	"context"
	"errors"
	"testing"

	"token-topup-go/internal/models"
	"token-topup-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLedger struct {
	balances []models.AccountBalance
	err      error
}

func (s *stubLedger) RecordTopUps(context.Context, []store.TopUpParams) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubLedger) GetTransactionHistory(context.Context, string, int, int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubLedger) GetUserBalance(_ context.Context, userId string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	for _, b := range s.balances {
		if b.UserId == userId {
			return b.Balance, nil
		}
	}
	return decimal.Zero, nil
}

func (s *stubLedger) GetAllBalances(context.Context) ([]models.AccountBalance, error) {
	return s.balances, s.err
}

func (s *stubLedger) ReconcileUserBalance(context.Context, string) error { return nil }

func (s *stubLedger) Close() {}

func TestLedgerAccounts_All(t *testing.T) {
	ledger := &stubLedger{balances: []models.AccountBalance{
		{UserId: "1", Balance: decimal.NewFromInt(37)},
		{UserId: "2", Balance: decimal.NewFromInt(71)},
	}}

	accounts, err := LedgerAccounts(context.Background(), ledger, "", zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestLedgerAccounts_Filtered(t *testing.T) {
	ledger := &stubLedger{balances: []models.AccountBalance{
		{UserId: "1", Balance: decimal.NewFromInt(37)},
		{UserId: "2", Balance: decimal.NewFromInt(71)},
	}}

	accounts, err := LedgerAccounts(context.Background(), ledger, "2", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "2", accounts[0].UserId)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(71)))
}

func TestLedgerAccounts_Error(t *testing.T) {
	boom := errors.New("boom")

	_, err := LedgerAccounts(context.Background(), &stubLedger{err: boom}, "", zap.NewNop())

	assert.True(t, errors.Is(err, boom))
}
