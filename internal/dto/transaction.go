package dto

import (
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// MutationRequest is one signed balance change of a transaction request.
type MutationRequest struct {
	AccountID int64         `json:"accountID" binding:"required,gt=0"`
	Amount    domain.Amount `json:"amount" binding:"amount=nonzero"`
}

// CommitTransactionRequest commits an arbitrary transaction.
type CommitTransactionRequest struct {
	Type      domain.TransactionType `json:"type" binding:"required"`
	Mutations []MutationRequest      `json:"mutations" binding:"required,min=1,dive"`
}

// ToDomainMutations converts the request legs preserving their order.
func (r CommitTransactionRequest) ToDomainMutations() []domain.MutationRequest {
	out := make([]domain.MutationRequest, len(r.Mutations))
	for i, m := range r.Mutations {
		out[i] = domain.MutationRequest{AccountID: m.AccountID, Amount: m.Amount}
	}
	return out
}

// IncomeRequest credits an owner's points account, creating it when missing.
type IncomeRequest struct {
	Owner  OwnerRequest  `json:"owner"`
	Amount domain.Amount `json:"amount" binding:"amount=positive"`
}

// TransferRequest moves points between two accounts.
type TransferRequest struct {
	FromAccountID int64         `json:"fromAccountID" binding:"required,gt=0"`
	ToAccountID   int64         `json:"toAccountID" binding:"required,gt=0,nefield=FromAccountID"`
	Amount        domain.Amount `json:"amount" binding:"amount=positive"`
}

// FundMarketRequest moves points from a user into a market's points account.
type FundMarketRequest struct {
	UserID   int64         `json:"userID" binding:"required,gt=0"`
	MarketID int64         `json:"marketID" binding:"required,gt=0"`
	Amount   domain.Amount `json:"amount" binding:"amount=positive"`
}

// MutationResponse is a committed mutation with the balance it produced.
type MutationResponse struct {
	MutationID  int64         `json:"mutationID"`
	AccountID   int64         `json:"accountID"`
	Amount      domain.Amount `json:"amount"`
	PostBalance domain.Amount `json:"postBalance"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID int64                  `json:"transactionID"`
	Type          domain.TransactionType `json:"type"`
	CreatedAt     time.Time              `json:"createdAt"`
	Mutations     []MutationResponse     `json:"mutations"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(tx *domain.Transaction) TransactionResponse {
	res := TransactionResponse{
		TransactionID: tx.TransactionID,
		Type:          tx.Type,
		CreatedAt:     tx.CreatedAt,
		Mutations:     make([]MutationResponse, len(tx.Mutations)),
	}
	for i, m := range tx.Mutations {
		res.Mutations[i] = MutationResponse{
			MutationID:  m.MutationID,
			AccountID:   m.AccountID,
			Amount:      m.Amount,
			PostBalance: m.PostBalance,
		}
	}
	return res
}
