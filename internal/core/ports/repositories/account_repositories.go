package repositories

import (
	"context"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID returns apperrors.ErrAccountNotFound if the account does not exist.
	FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)

	// FindAccountByOwner returns apperrors.ErrAccountNotFound if no account exists for owner and currency.
	FindAccountByOwner(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error)

	// ListAccountsByUser lists every account owned by the user, ordered by ID.
	ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error)

	// ListAccountsByMarket lists the market points account first, then pool accounts by outcome.
	ListAccountsByMarket(ctx context.Context, marketID int64) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// EnsureAccount returns the account for owner and currency, creating it if absent.
	// Creation is idempotent: a uniqueness constraint in the store guarantees that
	// concurrent callers all observe the same account ID.
	EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
