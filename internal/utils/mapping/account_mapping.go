package mapping

import (
	"fmt"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/models"
)

// ToModelAccount converts a domain owner and currency into an account row ready for insert.
func ToModelAccount(owner domain.Owner, currency domain.Currency) models.Account {
	row := models.Account{
		OwnerKind: models.OwnerKind(owner.Kind),
		Currency:  string(currency),
	}
	switch owner.Kind {
	case domain.OwnerUser:
		row.OwnerUserID = int64Ptr(owner.UserID)
	case domain.OwnerMarketPoints:
		row.OwnerMarketID = int64Ptr(owner.MarketID)
	case domain.OwnerMarketPool:
		row.OwnerMarketID = int64Ptr(owner.MarketID)
		row.OutcomeID = int64Ptr(owner.OutcomeID)
	}
	return row
}

// ToDomainAccount converts an account row to a domain Account.
// A row whose owner columns do not match its kind is reported as an integrity error.
func ToDomainAccount(m models.Account) (domain.Account, error) {
	owner := domain.Owner{
		Kind:      domain.OwnerKind(m.OwnerKind),
		UserID:    derefInt64(m.OwnerUserID),
		MarketID:  derefInt64(m.OwnerMarketID),
		OutcomeID: derefInt64(m.OutcomeID),
	}
	if err := owner.Validate(); err != nil {
		return domain.Account{}, fmt.Errorf("%w: account %d has inconsistent owner columns: %v", apperrors.ErrIntegrity, m.ID, err)
	}
	return domain.Account{
		AccountID: m.ID,
		Owner:     owner,
		Currency:  domain.Currency(m.Currency),
		CreatedAt: m.CreatedAt,
	}, nil
}

// ToDomainAccountSlice converts a slice of account rows.
func ToDomainAccountSlice(ms []models.Account) ([]domain.Account, error) {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		d, err := ToDomainAccount(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

func int64Ptr(v int64) *int64 { return &v }

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
