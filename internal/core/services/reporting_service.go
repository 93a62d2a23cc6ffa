package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service
func NewReportingService(repo portsrepo.ReportingRepository) portssvc.ReportingService {
	return &reportingService{reportingRepo: repo}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

func windowAttrs(start, end *time.Time) []any {
	attrs := []any{}
	if start != nil {
		attrs = append(attrs, slog.String("start", start.Format(time.RFC3339)))
	}
	if end != nil {
		attrs = append(attrs, slog.String("end", end.Format(time.RFC3339)))
	}
	return attrs
}

// TradingVolume sums the trades of a market in [start, end)
func (s *reportingService) TradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (*domain.TradingVolume, error) {
	if marketID <= 0 {
		return nil, fmt.Errorf("%w: invalid market ID %d", apperrors.ErrValidation, marketID)
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("%w: window end %s is before start %s", apperrors.ErrValidation,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	volume, err := s.reportingRepo.GetTradingVolume(ctx, marketID, start, end)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trading volume",
			append([]any{slog.Int64("market_id", marketID)}, windowAttrs(start, end)...)...)
		return nil, fmt.Errorf("failed to retrieve trading volume: %w", err)
	}

	s.LogDebug(ctx, "Trading volume computed", slog.Int64("market_id", marketID), slog.String("volume", volume.String()))
	return &domain.TradingVolume{MarketID: marketID, Start: start, End: end, Volume: volume}, nil
}

// MarketCapitalizations lists markets by the balance of their points account
func (s *reportingService) MarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error) {
	caps, err := s.reportingRepo.GetMarketCapitalizations(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve market capitalizations")
		return nil, fmt.Errorf("failed to retrieve market capitalizations: %w", err)
	}
	s.LogDebug(ctx, "Market capitalizations computed", slog.Int("market_count", len(caps)))
	return caps, nil
}
