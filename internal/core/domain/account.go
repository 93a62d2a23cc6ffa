package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
)

// OwnerKind identifies who an account belongs to.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "user"
	OwnerMarketPoints OwnerKind = "market_points"
	OwnerMarketPool   OwnerKind = "market_pool"
)

// Currency is the denomination an account holds.
type Currency string

// CurrencyPoints is the only currency defined so far.
const CurrencyPoints Currency = "points"

// Owner is a tagged variant: exactly the IDs relevant to Kind are set.
//   - OwnerUser:         UserID
//   - OwnerMarketPoints: MarketID
//   - OwnerMarketPool:   MarketID, OutcomeID
type Owner struct {
	Kind      OwnerKind `json:"kind"`
	UserID    int64     `json:"userID,omitempty"`
	MarketID  int64     `json:"marketID,omitempty"`
	OutcomeID int64     `json:"outcomeID,omitempty"`
}

// UserOwner returns the owner of a user's points account.
func UserOwner(userID int64) Owner {
	return Owner{Kind: OwnerUser, UserID: userID}
}

// MarketPointsOwner returns the owner of a market's points account.
func MarketPointsOwner(marketID int64) Owner {
	return Owner{Kind: OwnerMarketPoints, MarketID: marketID}
}

// MarketPoolOwner returns the owner of a market outcome pool account.
func MarketPoolOwner(marketID, outcomeID int64) Owner {
	return Owner{Kind: OwnerMarketPool, MarketID: marketID, OutcomeID: outcomeID}
}

// Validate checks that the IDs match the kind.
func (o Owner) Validate() error {
	switch o.Kind {
	case OwnerUser:
		if o.UserID <= 0 || o.MarketID != 0 || o.OutcomeID != 0 {
			return fmt.Errorf("%w: user owner needs a positive user ID only", apperrors.ErrValidation)
		}
	case OwnerMarketPoints:
		if o.MarketID <= 0 || o.UserID != 0 || o.OutcomeID != 0 {
			return fmt.Errorf("%w: market points owner needs a positive market ID only", apperrors.ErrValidation)
		}
	case OwnerMarketPool:
		if o.MarketID <= 0 || o.OutcomeID <= 0 || o.UserID != 0 {
			return fmt.Errorf("%w: market pool owner needs positive market and outcome IDs", apperrors.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown owner kind %q", apperrors.ErrValidation, o.Kind)
	}
	return nil
}

// AllowsOverdraft reports whether accounts of this owner may run a negative balance.
// Pool accounts act as the counterparty of trades and may go negative.
func (o Owner) AllowsOverdraft() bool {
	return o.Kind == OwnerMarketPool
}

func (o Owner) String() string {
	switch o.Kind {
	case OwnerUser:
		return fmt.Sprintf("user(%d)", o.UserID)
	case OwnerMarketPoints:
		return fmt.Sprintf("market_points(%d)", o.MarketID)
	case OwnerMarketPool:
		return fmt.Sprintf("market_pool(%d,%d)", o.MarketID, o.OutcomeID)
	default:
		return fmt.Sprintf("unknown(%s)", o.Kind)
	}
}

// Account is a ledger-tracked balance holder. Accounts are created lazily,
// never deleted and never move to another owner.
type Account struct {
	AccountID int64     `json:"accountID"`
	Owner     Owner     `json:"owner"`
	Currency  Currency  `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// AllowsOverdraft reports whether the account may run negative.
func (a Account) AllowsOverdraft() bool {
	return a.Owner.AllowsOverdraft()
}
