package dto

import (
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/utils/pagination"
)

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID int64         `json:"accountID"`
	Balance   domain.Amount `json:"balance"`
}

// ListHistoryParams defines query parameters for listing an account history.
type ListHistoryParams struct {
	Limit     int    `form:"limit,default=100" binding:"min=1,max=1000"`
	NextToken string `form:"nextToken"`
}

// LedgerEntryResponse is one line of an account history.
type LedgerEntryResponse struct {
	MutationID      int64                  `json:"mutationID"`
	TransactionID   int64                  `json:"transactionID"`
	TransactionType domain.TransactionType `json:"transactionType"`
	CreatedAt       time.Time              `json:"createdAt"`
	Amount          domain.Amount          `json:"amount"`
	PostBalance     domain.Amount          `json:"postBalance"`
}

// HistoryResponse is a page of an account history.
type HistoryResponse struct {
	AccountID int64                 `json:"accountID"`
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken string                `json:"nextToken,omitempty"` // Empty on the last page
}

// ToHistoryResponse converts a service page into the API shape.
func ToHistoryResponse(accountID int64, page *portssvc.HistoryPage) HistoryResponse {
	res := HistoryResponse{
		AccountID: accountID,
		Entries:   make([]LedgerEntryResponse, len(page.Entries)),
		NextToken: pagination.EncodeToken(page.NextCursor),
	}
	for i, e := range page.Entries {
		res.Entries[i] = LedgerEntryResponse{
			MutationID:      e.MutationID,
			TransactionID:   e.TransactionID,
			TransactionType: e.TransactionType,
			CreatedAt:       e.CreatedAt,
			Amount:          e.Amount,
			PostBalance:     e.PostBalance,
		}
	}
	return res
}

// AuditResponse reports a successful replay of an account history.
type AuditResponse struct {
	AccountID      int64         `json:"accountID"`
	Entries        int           `json:"entries"`
	LastMutationID int64         `json:"lastMutationID"`
	Balance        domain.Amount `json:"balance"`
	Consistent     bool          `json:"consistent"`
}

func ToAuditResponse(r *domain.AuditReport) AuditResponse {
	return AuditResponse{
		AccountID:      r.AccountID,
		Entries:        r.Entries,
		LastMutationID: r.LastMutationID,
		Balance:        r.Balance,
		Consistent:     true,
	}
}
