package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrAccountNotFound indicates that a referenced ledger account does not exist.
// It wraps ErrNotFound so generic not-found handling keeps working.
var ErrAccountNotFound = fmt.Errorf("account not found: %w", ErrNotFound)

// ErrInvalidTransactionType indicates an unrecognized transaction type tag.
var ErrInvalidTransactionType = errors.New("invalid transaction type")

// ErrConservationViolation indicates that the mutations of a conservation-required
// transaction do not sum to zero.
var ErrConservationViolation = errors.New("conservation violation")

// ErrInsufficientBalance indicates that a debit would drive a non-overdraftable account negative.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrPrecision indicates that an amount operation would lose precision.
var ErrPrecision = errors.New("precision error")

// ErrIntegrity indicates that a stored balance disagrees with the fold of its mutations.
var ErrIntegrity = errors.New("integrity error")

// ErrConflictRetryable indicates that the store detected a write conflict
// (serialization failure, deadlock, lock timeout). The whole operation may be retried.
var ErrConflictRetryable = errors.New("write conflict, retry")

// IntegrityError describes a balance snapshot that disagrees with its recomputed value.
type IntegrityError struct {
	AccountID  int64
	MutationID int64
	Stored     string
	Recomputed string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error: account %d at mutation %d has stored balance %s but history folds to %s",
		e.AccountID, e.MutationID, e.Stored, e.Recomputed)
}

// Unwrap lets errors.Is(err, ErrIntegrity) match.
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// PrecisionError describes a value that cannot be represented at the ledger scale.
type PrecisionError struct {
	Value  string
	Reason string
}

// maxErrorValueLength caps the offending value echoed in a PrecisionError.
const maxErrorValueLength = 48

// NewPrecisionError builds a PrecisionError, truncating long values.
func NewPrecisionError(value, reason string) *PrecisionError {
	if len(value) > maxErrorValueLength {
		value = value[:maxErrorValueLength] + "..."
	}
	return &PrecisionError{Value: value, Reason: reason}
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("precision error: %s: %s", e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrPrecision) match.
func (e *PrecisionError) Unwrap() error { return ErrPrecision }

// IsRetryable reports whether err is a conflict-class failure that is safe to retry from scratch.
// Integrity errors are never retryable, even if a conflict is also present in the chain.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrIntegrity) {
		return false
	}
	return errors.Is(err, ErrConflictRetryable)
}
