package services

import (
	"context"
	"iter"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// HistoryPage is one page of an account history.
type HistoryPage struct {
	Entries []domain.LedgerEntry
	// NextCursor is the mutation ID to resume after, or 0 when the history is exhausted.
	NextCursor int64
}

// BalanceSvcFacade defines the read side of account balances.
type BalanceSvcFacade interface {
	// CurrentBalance returns the balance after the account's latest mutation.
	CurrentBalance(ctx context.Context, accountID int64) (domain.Amount, error)

	// History yields the account's entries in mutation order. The sequence is
	// lazy and can be ranged over more than once.
	History(ctx context.Context, accountID int64) iter.Seq2[domain.LedgerEntry, error]

	// HistoryPage returns up to limit entries after cursor.
	HistoryPage(ctx context.Context, accountID int64, afterMutationID int64, limit int) (*HistoryPage, error)

	// VerifyAccount replays the history and checks every stored snapshot.
	VerifyAccount(ctx context.Context, accountID int64) (*domain.AuditReport, error)
}
