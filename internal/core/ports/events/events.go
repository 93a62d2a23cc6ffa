// Package events defines the notifications emitted after a transaction commits.
package events

import (
	"context"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// TransactionCommitted is published once per committed transaction.
type TransactionCommitted struct {
	EventID       string                 `json:"event_id"`
	TransactionID int64                  `json:"transaction_id"`
	Type          domain.TransactionType `json:"type"`
	CreatedAt     time.Time              `json:"created_at"`
	Mutations     []CommittedMutation    `json:"mutations"`
}

// CommittedMutation is a mutation as carried in TransactionCommitted.
type CommittedMutation struct {
	MutationID  int64         `json:"mutation_id"`
	AccountID   int64         `json:"account_id"`
	Amount      domain.Amount `json:"amount"`
	PostBalance domain.Amount `json:"post_balance"`
}

// NewTransactionCommitted builds the event for a committed transaction.
func NewTransactionCommitted(eventID string, tx domain.Transaction) TransactionCommitted {
	ev := TransactionCommitted{
		EventID:       eventID,
		TransactionID: tx.TransactionID,
		Type:          tx.Type,
		CreatedAt:     tx.CreatedAt,
		Mutations:     make([]CommittedMutation, 0, len(tx.Mutations)),
	}
	for _, m := range tx.Mutations {
		ev.Mutations = append(ev.Mutations, CommittedMutation{
			MutationID:  m.MutationID,
			AccountID:   m.AccountID,
			Amount:      m.Amount,
			PostBalance: m.PostBalance,
		})
	}
	return ev
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	PublishTransactionCommitted(ctx context.Context, ev TransactionCommitted) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishTransactionCommitted(context.Context, TransactionCommitted) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
