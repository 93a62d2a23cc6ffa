package services

import (
	"context"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// ReportingService defines operations for market-level ledger aggregates
type ReportingService interface {
	// TradingVolume returns how many points were traded in a market. The lower
	// bound is inclusive, the upper bound exclusive; omit both for the total.
	TradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (*domain.TradingVolume, error)

	// MarketCapitalizations ranks markets by the balance of their points account
	MarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error)
}
