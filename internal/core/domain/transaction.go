package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
)

// TransactionType selects the conservation rule a transaction is validated with.
type TransactionType string

const (
	// TransactionIncome creates value from nothing with a single credit.
	TransactionIncome TransactionType = "income"
	// TransactionTransfer moves points between accounts.
	TransactionTransfer TransactionType = "transfer"
	// TransactionTrade exchanges points with a market pool.
	TransactionTrade TransactionType = "trade"
	// TransactionFundMarket moves points from a user into a market's points account.
	TransactionFundMarket TransactionType = "fund_market"
)

// ParseTransactionType maps a tag to a known type.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	switch t {
	case TransactionIncome, TransactionTransfer, TransactionTrade, TransactionFundMarket:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidTransactionType, s)
}

// RequiresConservation reports whether mutations of this type must sum to zero.
func (t TransactionType) RequiresConservation() bool {
	switch t {
	case TransactionTransfer, TransactionTrade, TransactionFundMarket:
		return true
	}
	return false
}

// Transaction is one economic event. It is written once together with its mutations.
type Transaction struct {
	TransactionID int64           `json:"transactionID"`
	Type          TransactionType `json:"type"`
	CreatedAt     time.Time       `json:"createdAt"`
	Mutations     []Mutation      `json:"mutations,omitempty"`
}

// Mutation is a signed balance change of one account; positive is a credit.
type Mutation struct {
	MutationID    int64  `json:"mutationID"`
	TransactionID int64  `json:"transactionID"`
	AccountID     int64  `json:"accountID"`
	Amount        Amount `json:"amount"`
	PostBalance   Amount `json:"postBalance"`
}

// MutationRequest is a mutation that has not been committed yet.
type MutationRequest struct {
	AccountID int64  `json:"accountID"`
	Amount    Amount `json:"amount"`
}

// ValidateMutations checks every rule of txType that does not depend on balances.
func ValidateMutations(txType TransactionType, reqs []MutationRequest) error {
	if err := ValidateMutationShape(txType, reqs); err != nil {
		return err
	}
	return ValidateConservation(txType, reqs)
}

// ValidateMutationShape checks the type tag, mutation count, account IDs and
// signs. It does not check that conservation-required mutations sum to zero.
func ValidateMutationShape(txType TransactionType, reqs []MutationRequest) error {
	if _, err := ParseTransactionType(string(txType)); err != nil {
		return err
	}

	switch txType {
	case TransactionIncome:
		if len(reqs) != 1 {
			return fmt.Errorf("%w: income takes exactly one mutation, got %d", apperrors.ErrValidation, len(reqs))
		}
		if !reqs[0].Amount.IsPositive() {
			return fmt.Errorf("%w: income amount must be positive, got %s", apperrors.ErrValidation, reqs[0].Amount)
		}
		if reqs[0].AccountID <= 0 {
			return fmt.Errorf("%w: invalid account ID %d", apperrors.ErrValidation, reqs[0].AccountID)
		}
		return nil
	}

	if len(reqs) < 2 {
		return fmt.Errorf("%w: %s needs at least two mutations, got %d", apperrors.ErrValidation, txType, len(reqs))
	}

	seen := make(map[int64]struct{}, len(reqs))
	for _, req := range reqs {
		if req.AccountID <= 0 {
			return fmt.Errorf("%w: invalid account ID %d", apperrors.ErrValidation, req.AccountID)
		}
		if _, dup := seen[req.AccountID]; dup {
			return fmt.Errorf("%w: account %d appears more than once", apperrors.ErrValidation, req.AccountID)
		}
		seen[req.AccountID] = struct{}{}
		if req.Amount.IsZero() {
			return fmt.Errorf("%w: zero mutation for account %d", apperrors.ErrValidation, req.AccountID)
		}
	}
	return nil
}

// ValidateConservation checks that the mutations of a conservation-required type sum to zero.
func ValidateConservation(txType TransactionType, reqs []MutationRequest) error {
	if !txType.RequiresConservation() {
		return nil
	}
	sum := ZeroAmount
	for _, req := range reqs {
		var err error
		if sum, err = sum.Add(req.Amount); err != nil {
			return err
		}
	}
	if !sum.IsZero() {
		return fmt.Errorf("%w: %s mutations sum to %s", apperrors.ErrConservationViolation, txType, sum)
	}
	return nil
}

// ValidateBalances checks that no debit drives a non-overdraftable account negative.
// balances holds the current balance of every locked account.
func ValidateBalances(reqs []MutationRequest, accounts map[int64]Account, balances map[int64]Amount) error {
	for _, req := range reqs {
		if !req.Amount.IsNegative() {
			continue
		}
		acc, ok := accounts[req.AccountID]
		if !ok {
			return fmt.Errorf("%w: ID %d", apperrors.ErrAccountNotFound, req.AccountID)
		}
		if acc.AllowsOverdraft() {
			continue
		}
		next, err := balances[req.AccountID].Add(req.Amount)
		if err != nil {
			return err
		}
		if next.IsNegative() {
			return fmt.Errorf("%w: account %d has %s, debit of %s", apperrors.ErrInsufficientBalance,
				req.AccountID, balances[req.AccountID], req.Amount.Neg())
		}
	}
	return nil
}
