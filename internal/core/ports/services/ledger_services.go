package services

import (
	"context"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// LedgerWriterSvc defines the operations that append to the ledger.
type LedgerWriterSvc interface {
	// CommitTransaction validates and atomically applies the mutations as one
	// transaction of txType. Either every mutation is recorded or none is.
	CommitTransaction(ctx context.Context, txType domain.TransactionType, mutations []domain.MutationRequest) (*domain.Transaction, error)

	// CreateTransactionIncome ensures the owner's points account and credits amount to it.
	CreateTransactionIncome(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.Transaction, error)

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount domain.Amount) (*domain.Transaction, error)

	// FundMarket moves amount from a user's points account to the market's points account.
	FundMarket(ctx context.Context, userID, marketID int64, amount domain.Amount) (*domain.Transaction, error)
}

// LedgerReaderSvc defines read operations over committed transactions.
type LedgerReaderSvc interface {
	// GetTransaction retrieves a committed transaction with its mutations.
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}
