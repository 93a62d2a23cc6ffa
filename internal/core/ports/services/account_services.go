package services

import (
	"context"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account by its ID.
	GetAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)

	// ExpectAccount resolves an existing account without creating one.
	ExpectAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error)

	// ExpectPointsAccount is ExpectAccount for the points currency.
	ExpectPointsAccount(ctx context.Context, owner domain.Owner) (*domain.Account, error)

	// ListAccountsForUser lists every account a user owns.
	ListAccountsForUser(ctx context.Context, userID int64) ([]domain.Account, error)

	// ListAccountsForMarket lists a market's points account and its pool accounts.
	ListAccountsForMarket(ctx context.Context, marketID int64) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// EnsureAccount returns the account for owner and currency, creating it on first use.
	EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error)

	// EnsurePointsAccount is EnsureAccount for the points currency.
	EnsurePointsAccount(ctx context.Context, owner domain.Owner) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
