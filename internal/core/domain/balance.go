package domain

import (
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
)

// BalanceSnapshot is the running balance of an account right after one mutation.
type BalanceSnapshot struct {
	AccountID   int64  `json:"accountID"`
	MutationID  int64  `json:"mutationID"`
	PostBalance Amount `json:"postBalance"`
}

// LedgerEntry is one line of an account history, ordered by MutationID.
type LedgerEntry struct {
	MutationID      int64           `json:"mutationID"`
	TransactionID   int64           `json:"transactionID"`
	TransactionType TransactionType `json:"transactionType"`
	CreatedAt       time.Time       `json:"createdAt"`
	Amount          Amount          `json:"amount"`
	PostBalance     Amount          `json:"postBalance"`
}

// Replayer folds an account history and checks every stored snapshot against the fold.
type Replayer struct {
	accountID      int64
	balance        Amount
	entries        int
	lastMutationID int64
}

// NewReplayer starts a replay for accountID at a zero balance.
func NewReplayer(accountID int64) *Replayer {
	return &Replayer{accountID: accountID, balance: ZeroAmount}
}

// Apply adds one entry. Entries must arrive in ascending MutationID order.
// A stored post balance that differs from the fold yields an IntegrityError.
func (r *Replayer) Apply(e LedgerEntry) error {
	if r.entries > 0 && e.MutationID <= r.lastMutationID {
		return &apperrors.IntegrityError{
			AccountID:  r.accountID,
			MutationID: e.MutationID,
			Stored:     e.PostBalance.String(),
			Recomputed: "out-of-order history",
		}
	}
	next, err := r.balance.Add(e.Amount)
	if err != nil {
		return err
	}
	if !next.Equal(e.PostBalance) {
		return &apperrors.IntegrityError{
			AccountID:  r.accountID,
			MutationID: e.MutationID,
			Stored:     e.PostBalance.String(),
			Recomputed: next.String(),
		}
	}
	r.balance = next
	r.entries++
	r.lastMutationID = e.MutationID
	return nil
}

// Balance is the fold so far.
func (r *Replayer) Balance() Amount { return r.balance }

// Entries is the number of entries applied.
func (r *Replayer) Entries() int { return r.entries }

// LastMutationID is the ID of the last applied entry, or 0.
func (r *Replayer) LastMutationID() int64 { return r.lastMutationID }

// AuditReport is the outcome of replaying an account history.
type AuditReport struct {
	AccountID      int64  `json:"accountID"`
	Entries        int    `json:"entries"`
	LastMutationID int64  `json:"lastMutationID"`
	Balance        Amount `json:"balance"`
}
