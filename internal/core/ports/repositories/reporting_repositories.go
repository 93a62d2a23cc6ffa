package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
)

// ReportingRepository defines aggregate reads over the ledger tables.
type ReportingRepository interface {
	// GetTradingVolume sums the positive mutations of trade transactions that touch
	// an account owned by marketID and were created in [start, end).
	GetTradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (domain.Amount, error)

	// GetMarketCapitalizations returns every market points account with its current
	// balance, highest first, ties by ascending market ID.
	GetMarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error)
}
