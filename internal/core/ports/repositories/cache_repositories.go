package repositories

import (
	"context"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// BalanceCache holds current balances keyed by account. A miss is reported as
// (zero, false, nil). SetBalance keeps whichever snapshot has the higher
// MutationID, so late writers never roll a cached balance back. Callers treat
// the store as the source of truth.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID int64) (domain.Amount, bool, error)
	SetBalance(ctx context.Context, snapshot domain.BalanceSnapshot) error
	// Invalidate drops the cached balance but remembers mutationID, so reads
	// miss and SetBalance refuses snapshots older than mutationID.
	Invalidate(ctx context.Context, accountID, mutationID int64) error
}
