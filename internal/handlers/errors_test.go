package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: ID 4", apperrors.ErrAccountNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: transaction 9", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.ErrValidation, http.StatusBadRequest},
		{apperrors.ErrInvalidTransactionType, http.StatusBadRequest},
		{apperrors.ErrConservationViolation, http.StatusBadRequest},
		{apperrors.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{fmt.Errorf("giving up after 5 attempts: %w", apperrors.ErrConflictRetryable), http.StatusServiceUnavailable},
		{&apperrors.IntegrityError{AccountID: 1, MutationID: 2}, http.StatusInternalServerError},
		{&apperrors.PrecisionError{Value: "1.001"}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
