package mapping

import (
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/models"
)

// ToDomainTransaction converts a transaction row and its mutation rows.
func ToDomainTransaction(t models.Transaction, ms []models.Mutation) (domain.Transaction, error) {
	txType, err := domain.ParseTransactionType(t.Type)
	if err != nil {
		return domain.Transaction{}, err
	}
	mutations := make([]domain.Mutation, len(ms))
	for i, m := range ms {
		if mutations[i], err = ToDomainMutation(m); err != nil {
			return domain.Transaction{}, err
		}
	}
	return domain.Transaction{
		TransactionID: t.ID,
		Type:          txType,
		CreatedAt:     t.CreatedAt,
		Mutations:     mutations,
	}, nil
}

// ToDomainMutation converts a mutation row. Stored decimals that do not fit the ledger scale fail with a PrecisionError.
func ToDomainMutation(m models.Mutation) (domain.Mutation, error) {
	amount, err := domain.NewAmount(m.Amount)
	if err != nil {
		return domain.Mutation{}, err
	}
	post, err := domain.NewAmount(m.PostBalance)
	if err != nil {
		return domain.Mutation{}, err
	}
	return domain.Mutation{
		MutationID:    m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Amount:        amount,
		PostBalance:   post,
	}, nil
}

// ToDomainLedgerEntry converts a history row.
func ToDomainLedgerEntry(m models.LedgerEntry) (domain.LedgerEntry, error) {
	amount, err := domain.NewAmount(m.Amount)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	post, err := domain.NewAmount(m.PostBalance)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return domain.LedgerEntry{
		MutationID:      m.MutationID,
		TransactionID:   m.TransactionID,
		TransactionType: domain.TransactionType(m.TransactionType),
		CreatedAt:       m.CreatedAt,
		Amount:          amount,
		PostBalance:     post,
	}, nil
}
