package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
)

const (
	defaultHistoryPageSize = 100
	maxHistoryPageSize     = 1000
)

// balanceService implements the BalanceSvcFacade interface
type balanceService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	ledgerRepo  portsrepo.BalanceReader
	cache       portsrepo.BalanceCache
	pageSize    int
}

// BalanceOption is a functional option for configuring the balance service
type BalanceOption func(*balanceService)

// WithReadThroughCache serves current balances from cache when present.
func WithReadThroughCache(cache portsrepo.BalanceCache) BalanceOption {
	return func(s *balanceService) {
		s.cache = cache
	}
}

// WithHistoryPageSize sets how many entries History fetches per round trip.
func WithHistoryPageSize(n int) BalanceOption {
	return func(s *balanceService) {
		if n > 0 {
			s.pageSize = min(n, maxHistoryPageSize)
		}
	}
}

// NewBalanceService creates the balance materializer read side.
func NewBalanceService(accountRepo portsrepo.AccountReader, ledgerRepo portsrepo.BalanceReader, options ...BalanceOption) portssvc.BalanceSvcFacade {
	svc := &balanceService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		pageSize:    defaultHistoryPageSize,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

func (s *balanceService) requireAccount(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return fmt.Errorf("%w: invalid account ID %d", apperrors.ErrValidation, accountID)
	}
	_, err := s.accountRepo.FindAccountByID(ctx, accountID)
	return err
}

// CurrentBalance returns zero for an account without mutations and
// ErrAccountNotFound for an unknown account.
func (s *balanceService) CurrentBalance(ctx context.Context, accountID int64) (domain.Amount, error) {
	if s.cache != nil && accountID > 0 {
		bal, ok, err := s.cache.GetBalance(ctx, accountID)
		switch {
		case err != nil:
			s.LogWarn(ctx, err, "Balance cache read failed", slog.Int64("account_id", accountID))
		case ok:
			return bal, nil
		}
	}

	if err := s.requireAccount(ctx, accountID); err != nil {
		return domain.Amount{}, err
	}
	snap, err := s.ledgerRepo.LatestSnapshot(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to read balance", slog.Int64("account_id", accountID))
		return domain.Amount{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetBalance(ctx, snap); err != nil {
			s.LogWarn(ctx, err, "Balance cache fill failed", slog.Int64("account_id", accountID))
		}
	}
	return snap.PostBalance, nil
}

// History yields entries page by page. Each range over the sequence starts
// again from the first mutation. Iteration stops at the first error.
func (s *balanceService) History(ctx context.Context, accountID int64) iter.Seq2[domain.LedgerEntry, error] {
	return func(yield func(domain.LedgerEntry, error) bool) {
		if err := s.requireAccount(ctx, accountID); err != nil {
			yield(domain.LedgerEntry{}, err)
			return
		}

		var after int64
		for {
			page, err := s.ledgerRepo.ListEntries(ctx, accountID, after, s.pageSize)
			if err != nil {
				yield(domain.LedgerEntry{}, err)
				return
			}
			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			after = page[len(page)-1].MutationID
		}
	}
}

// HistoryPage serves one page. A limit outside (0, 1000] falls back to the configured page size.
func (s *balanceService) HistoryPage(ctx context.Context, accountID int64, afterMutationID int64, limit int) (*portssvc.HistoryPage, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if afterMutationID < 0 {
		return nil, fmt.Errorf("%w: invalid cursor %d", apperrors.ErrValidation, afterMutationID)
	}
	if limit <= 0 || limit > maxHistoryPageSize {
		limit = s.pageSize
	}

	entries, err := s.ledgerRepo.ListEntries(ctx, accountID, afterMutationID, limit+1)
	if err != nil {
		s.LogError(ctx, err, "Failed to list history", slog.Int64("account_id", accountID))
		return nil, err
	}

	page := &portssvc.HistoryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		page.NextCursor = entries[limit-1].MutationID
	}
	return page, nil
}

// VerifyAccount replays the history and compares it with the latest snapshot.
// It reports the first divergence and never repairs data.
func (s *balanceService) VerifyAccount(ctx context.Context, accountID int64) (*domain.AuditReport, error) {
	replay := domain.NewReplayer(accountID)
	for entry, err := range s.History(ctx, accountID) {
		if err != nil {
			return nil, s.reportIntegrity(ctx, err)
		}
		if err := replay.Apply(entry); err != nil {
			return nil, s.reportIntegrity(ctx, err)
		}
	}

	latest, err := s.ledgerRepo.LatestSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if latest.MutationID != replay.LastMutationID() || !latest.PostBalance.Equal(replay.Balance()) {
		return nil, s.reportIntegrity(ctx, &apperrors.IntegrityError{
			AccountID:  accountID,
			MutationID: latest.MutationID,
			Stored:     latest.PostBalance.String(),
			Recomputed: replay.Balance().String(),
		})
	}

	return &domain.AuditReport{
		AccountID:      accountID,
		Entries:        replay.Entries(),
		LastMutationID: replay.LastMutationID(),
		Balance:        replay.Balance(),
	}, nil
}

func (s *balanceService) reportIntegrity(ctx context.Context, err error) error {
	var integrityErr *apperrors.IntegrityError
	if errors.As(err, &integrityErr) {
		s.LogError(ctx, err, "Account history diverges from snapshots",
			slog.Int64("account_id", integrityErr.AccountID),
			slog.Int64("mutation_id", integrityErr.MutationID),
			slog.String("stored", integrityErr.Stored),
			slog.String("recomputed", integrityErr.Recomputed))
	}
	return err
}
