package dto

import (
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// OwnerRequest identifies an account owner. Only the IDs relevant to Kind may be set.
type OwnerRequest struct {
	Kind      domain.OwnerKind `json:"kind" binding:"required,oneof=user market_points market_pool"`
	UserID    int64            `json:"userID" binding:"omitempty,gt=0"`
	MarketID  int64            `json:"marketID" binding:"omitempty,gt=0"`
	OutcomeID int64            `json:"outcomeID" binding:"omitempty,gt=0"`
}

// ToOwner converts the request into a domain.Owner. The shape is checked by the service.
func (r OwnerRequest) ToOwner() domain.Owner {
	return domain.Owner{
		Kind:      r.Kind,
		UserID:    r.UserID,
		MarketID:  r.MarketID,
		OutcomeID: r.OutcomeID,
	}
}

// EnsureAccountRequest finds or creates the account of an owner.
type EnsureAccountRequest struct {
	OwnerRequest
	Currency domain.Currency `json:"currency"` // Optional, defaults to points
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID int64           `json:"accountID"`
	Owner     domain.Owner    `json:"owner"`
	Currency  domain.Currency `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: acc.AccountID,
		Owner:     acc.Owner,
		Currency:  acc.Currency,
		CreatedAt: acc.CreatedAt,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsResponse wraps a list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
