package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance represents the running total of tokens granted to a user (hot data)
type AccountBalance struct {
	Id                string          `db:"id"`
	UserId            string          `db:"user_id"`
	Balance           decimal.Decimal `db:"balance"`
	LastTransactionId string          `db:"last_transaction_id"`
	Version           int64           `db:"version"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// Transaction represents one immutable top-up grant (cold data)
type Transaction struct {
	Id                    string          `db:"id"`
	RunId                 string          `db:"run_id"`
	UserId                string          `db:"user_id"`
	CompanyId             string          `db:"company_id"`
	TransactionType       string          `db:"transaction_type"`
	Amount                decimal.Decimal `db:"amount"`
	BalanceBefore         decimal.Decimal `db:"balance_before"`
	BalanceAfter          decimal.Decimal `db:"balance_after"`
	TokensBefore          int64           `db:"tokens_before"`
	TokensAfter           int64           `db:"tokens_after"`
	ExternalTransactionId string          `db:"external_transaction_id"`
	Reference             string          `db:"reference"`
	Status                string          `db:"status"`
	CreatedAt             time.Time       `db:"created_at"`
}
