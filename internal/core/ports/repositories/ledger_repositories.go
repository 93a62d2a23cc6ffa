package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// LedgerTx is the handle of one open unit of work. Reads through it observe the
// writes made earlier in the same unit of work.
type LedgerTx interface {
	// LockAccounts locks the accounts against concurrent commits until the unit of
	// work ends and returns them by ID. Locks are taken in ascending ID order.
	// A missing account yields apperrors.ErrAccountNotFound.
	LockAccounts(ctx context.Context, accountIDs []int64) (map[int64]domain.Account, error)

	// LatestBalance returns the post balance of the account's latest snapshot, or zero.
	LatestBalance(ctx context.Context, accountID int64) (domain.Amount, error)

	// InsertTransaction appends a transaction and returns its ID.
	InsertTransaction(ctx context.Context, txType domain.TransactionType, createdAt time.Time) (int64, error)

	// InsertMutation appends a mutation and returns its ID.
	InsertMutation(ctx context.Context, transactionID, accountID int64, amount domain.Amount) (int64, error)

	// InsertBalanceSnapshot records the running balance after a mutation.
	InsertBalanceSnapshot(ctx context.Context, snapshot domain.BalanceSnapshot) error

	// SumMutations folds the account's full mutation history.
	SumMutations(ctx context.Context, accountID int64) (domain.Amount, error)
}

// BalanceReader defines read operations over materialized balances.
type BalanceReader interface {
	// LatestSnapshot returns the account's latest snapshot. An account without
	// mutations yields a zero balance at MutationID 0.
	LatestSnapshot(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error)

	// ListEntries returns up to limit history entries with mutation ID greater than
	// afterMutationID, in ascending mutation ID order.
	ListEntries(ctx context.Context, accountID int64, afterMutationID int64, limit int) ([]domain.LedgerEntry, error)
}

// TransactionReader defines read operations over the transaction log.
type TransactionReader interface {
	// FindTransactionByID returns the transaction with its mutations or apperrors.ErrNotFound.
	FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error)
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	UnitOfWork
	BalanceReader
	TransactionReader
}
