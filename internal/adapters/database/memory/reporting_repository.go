package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
)

// ReportingRepository implements the reporting port over a Store.
type ReportingRepository struct {
	store *Store
}

var _ portsrepo.ReportingRepository = (*ReportingRepository)(nil)

func (r *ReportingRepository) GetTradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (domain.Amount, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var credits []domain.Amount
	for _, stored := range s.txs {
		if stored.tx.Type != domain.TransactionTrade || !domain.InWindow(stored.tx.CreatedAt, start, end) {
			continue
		}
		touches := false
		for _, id := range stored.mutationIDs {
			if s.accounts[s.mutations[id].AccountID].Owner.MarketID == marketID {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		for _, id := range stored.mutationIDs {
			if amt := s.mutations[id].Amount; amt.IsPositive() {
				credits = append(credits, amt)
			}
		}
	}
	return domain.SumAmounts(credits...)
}

func (r *ReportingRepository) GetMarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := []domain.MarketCapitalization{}
	for _, acc := range s.accounts {
		if acc.Owner.Kind != domain.OwnerMarketPoints || acc.Currency != domain.CurrencyPoints {
			continue
		}
		caps = append(caps, domain.MarketCapitalization{
			MarketID:       acc.Owner.MarketID,
			AccountID:      acc.AccountID,
			Capitalization: s.latestSnapshotLocked(acc.AccountID).PostBalance,
		})
	}
	slices.SortFunc(caps, func(a, b domain.MarketCapitalization) int {
		if c := b.Capitalization.Cmp(a.Capitalization); c != 0 {
			return c
		}
		return cmp.Compare(a.MarketID, b.MarketID)
	})
	return caps, nil
}
