package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the "transaction" table.
type Transaction struct {
	ID        int64     `db:"id"`
	Type      string    `db:"type"`
	CreatedAt time.Time `db:"created_at"`
}

// Mutation is a row of the mutation table joined with its balance snapshot.
type Mutation struct {
	ID            int64           `db:"id"`
	TransactionID int64           `db:"transaction_id"`
	AccountID     int64           `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	PostBalance   decimal.Decimal `db:"post_balance"`
}

// LedgerEntry is a history row: mutation, snapshot and owning transaction.
type LedgerEntry struct {
	MutationID      int64           `db:"mutation_id"`
	TransactionID   int64           `db:"transaction_id"`
	TransactionType string          `db:"type"`
	CreatedAt       time.Time       `db:"created_at"`
	Amount          decimal.Decimal `db:"amount"`
	PostBalance     decimal.Decimal `db:"post_balance"`
}
