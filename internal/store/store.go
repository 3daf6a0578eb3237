package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"token-topup-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all ledger implementations.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrBalanceMismatch        = errors.New("balance mismatch")
)

// TopUpParams describes one grant to record in the ledger.
// Position is the user's index in the run's input list.
type TopUpParams struct {
	RunId        string
	Position     int
	UserId       string
	CompanyId    string
	CompanyName  string
	Amount       decimal.Decimal
	TokensBefore int64
	TokensAfter  int64
}

// ExternalId is the idempotency key of a grant: one per input position per run.
// The user id is kept for readability only, since dataset ids may repeat or be missing.
func (p TopUpParams) ExternalId() string {
	return fmt.Sprintf("%s:%d:%s", p.RunId, p.Position, p.UserId)
}

// AccountId renders a dataset id as a ledger account key
func AccountId(id int64) string {
	return strconv.FormatInt(id, 10)
}

// TopUpLedger defines the contract for the audit trail of granted tokens.
type TopUpLedger interface {
	// --- Grants ---
	// RecordTopUps stores all grants of a run atomically: either every grant is
	// recorded or none is.
	RecordTopUps(ctx context.Context, params []TopUpParams) ([]models.Transaction, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)

	// --- Balances ---
	GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error)
	GetAllBalances(ctx context.Context) ([]models.AccountBalance, error)
	ReconcileUserBalance(ctx context.Context, userId string) error

	// --- Lifecycle ---
	Close()
}
