package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/google/uuid"
)

// ledgerService implements the LedgerSvcFacade interface. It is the only
// writer of transactions, mutations and balance snapshots.
type ledgerService struct {
	BaseService
	accounts   portssvc.AccountSvcFacade
	ledgerRepo portsrepo.LedgerRepositoryFacade
	cache      portsrepo.BalanceCache
	publisher  events.Publisher
	retry      RetryPolicy
	now        func() time.Time
	newEventID func() string
}

// LedgerOption is a functional option for configuring the ledger service
type LedgerOption func(*ledgerService)

// WithBalanceCache refreshes cache after every commit.
func WithBalanceCache(cache portsrepo.BalanceCache) LedgerOption {
	return func(s *ledgerService) {
		s.cache = cache
	}
}

// WithEventPublisher publishes a TransactionCommitted event after every commit.
func WithEventPublisher(publisher events.Publisher) LedgerOption {
	return func(s *ledgerService) {
		s.publisher = publisher
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) LedgerOption {
	return func(s *ledgerService) {
		s.retry = policy
	}
}

// WithClock overrides the source of transaction timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates the ledger engine.
func NewLedgerService(accounts portssvc.AccountSvcFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, options ...LedgerOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accounts:   accounts,
		ledgerRepo: ledgerRepo,
		publisher:  events.NopPublisher{},
		retry:      DefaultRetryPolicy(),
		now:        time.Now,
		newEventID: uuid.NewString,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CommitTransaction validates the mutation set against the rules of txType and
// commits it atomically. Conflicts with concurrent writers are retried.
// Referenced accounts are resolved before the conservation rule is applied, so
// a request naming a missing account fails with ErrAccountNotFound.
func (s *ledgerService) CommitTransaction(ctx context.Context, txType domain.TransactionType, mutations []domain.MutationRequest) (*domain.Transaction, error) {
	if err := domain.ValidateMutationShape(txType, mutations); err != nil {
		s.LogDebug(ctx, "Rejected transaction", slog.String("type", string(txType)), slog.String("reason", err.Error()))
		return nil, err
	}

	var committed domain.Transaction
	err := s.retry.Do(ctx,
		func(int) error {
			var err error
			committed, err = s.commitOnce(ctx, txType, mutations)
			return err
		},
		func(attempt int, wait time.Duration, err error) {
			s.LogWarn(ctx, err, "Ledger commit conflicted, retrying",
				slog.String("type", string(txType)),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait))
		},
	)
	if err != nil {
		var integrityErr *apperrors.IntegrityError
		switch {
		case errors.As(err, &integrityErr):
			s.LogError(ctx, err, "Ledger integrity check failed",
				slog.Int64("account_id", integrityErr.AccountID),
				slog.Int64("mutation_id", integrityErr.MutationID),
				slog.String("stored", integrityErr.Stored),
				slog.String("recomputed", integrityErr.Recomputed))
		case apperrors.IsRetryable(err):
			s.LogError(ctx, err, "Ledger commit gave up on conflicts", slog.String("type", string(txType)))
		default:
			s.LogDebug(ctx, "Ledger commit failed", slog.String("type", string(txType)), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Transaction committed",
		slog.Int64("transaction_id", committed.TransactionID),
		slog.String("type", string(committed.Type)),
		slog.Int("mutations", len(committed.Mutations)))

	s.afterCommit(ctx, committed)
	return &committed, nil
}

// commitOnce is one attempt of the commit inside a single unit of work.
func (s *ledgerService) commitOnce(ctx context.Context, txType domain.TransactionType, reqs []domain.MutationRequest) (domain.Transaction, error) {
	var result domain.Transaction

	err := s.ledgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		ids := make([]int64, 0, len(reqs))
		for _, req := range reqs {
			ids = append(ids, req.AccountID)
		}
		slices.Sort(ids)

		accounts, err := tx.LockAccounts(ctx, ids)
		if err != nil {
			return err
		}
		if err := domain.ValidateConservation(txType, reqs); err != nil {
			return err
		}

		balances := make(map[int64]domain.Amount, len(ids))
		for _, id := range ids {
			if balances[id], err = tx.LatestBalance(ctx, id); err != nil {
				return err
			}
		}

		if err := domain.ValidateBalances(reqs, accounts, balances); err != nil {
			return err
		}

		createdAt := s.now().UTC()
		txID, err := tx.InsertTransaction(ctx, txType, createdAt)
		if err != nil {
			return err
		}

		result = domain.Transaction{
			TransactionID: txID,
			Type:          txType,
			CreatedAt:     createdAt,
			Mutations:     make([]domain.Mutation, 0, len(reqs)),
		}
		lastMutation := make(map[int64]int64, len(ids))

		for _, req := range reqs {
			mutationID, err := tx.InsertMutation(ctx, txID, req.AccountID, req.Amount)
			if err != nil {
				return err
			}
			post, err := balances[req.AccountID].Add(req.Amount)
			if err != nil {
				return err
			}
			snapshot := domain.BalanceSnapshot{AccountID: req.AccountID, MutationID: mutationID, PostBalance: post}
			if err := tx.InsertBalanceSnapshot(ctx, snapshot); err != nil {
				return err
			}
			balances[req.AccountID] = post
			lastMutation[req.AccountID] = mutationID
			result.Mutations = append(result.Mutations, domain.Mutation{
				MutationID:    mutationID,
				TransactionID: txID,
				AccountID:     req.AccountID,
				Amount:        req.Amount,
				PostBalance:   post,
			})
		}

		// The new snapshot of every touched account must equal the fold of its full history.
		for _, id := range ids {
			sum, err := tx.SumMutations(ctx, id)
			if err != nil {
				return err
			}
			if !sum.Equal(balances[id]) {
				return &apperrors.IntegrityError{
					AccountID:  id,
					MutationID: lastMutation[id],
					Stored:     balances[id].String(),
					Recomputed: sum.String(),
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return result, nil
}

// afterCommit refreshes the cache and publishes the commit event. Failures are
// logged only; the transaction is already durable.
func (s *ledgerService) afterCommit(ctx context.Context, tx domain.Transaction) {
	if s.cache != nil {
		for _, m := range tx.Mutations {
			snapshot := domain.BalanceSnapshot{AccountID: m.AccountID, MutationID: m.MutationID, PostBalance: m.PostBalance}
			if err := s.cache.SetBalance(ctx, snapshot); err != nil {
				s.LogWarn(ctx, err, "Failed to refresh cached balance", slog.Int64("account_id", m.AccountID))
				if err := s.cache.Invalidate(ctx, m.AccountID, m.MutationID); err != nil {
					s.LogWarn(ctx, err, "Failed to invalidate cached balance", slog.Int64("account_id", m.AccountID))
				}
			}
		}
	}

	ev := events.NewTransactionCommitted(s.newEventID(), tx)
	if err := s.publisher.PublishTransactionCommitted(ctx, ev); err != nil {
		s.LogWarn(ctx, err, "Failed to publish transaction event",
			slog.Int64("transaction_id", tx.TransactionID),
			slog.String("event_id", ev.EventID))
	}
}

// CreateTransactionIncome ensures the owner's points account and credits it.
func (s *ledgerService) CreateTransactionIncome(ctx context.Context, owner domain.Owner, amount domain.Amount) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: income amount must be positive, got %s", apperrors.ErrValidation, amount)
	}
	acc, err := s.accounts.EnsurePointsAccount(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.CommitTransaction(ctx, domain.TransactionIncome, []domain.MutationRequest{
		{AccountID: acc.AccountID, Amount: amount},
	})
}

// Transfer moves amount between two existing accounts.
func (s *ledgerService) Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount domain.Amount) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive, got %s", apperrors.ErrValidation, amount)
	}
	return s.CommitTransaction(ctx, domain.TransactionTransfer, []domain.MutationRequest{
		{AccountID: fromAccountID, Amount: amount.Neg()},
		{AccountID: toAccountID, Amount: amount},
	})
}

// FundMarket debits the user's points account and credits the market's.
func (s *ledgerService) FundMarket(ctx context.Context, userID, marketID int64, amount domain.Amount) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: funding amount must be positive, got %s", apperrors.ErrValidation, amount)
	}
	user, err := s.accounts.EnsurePointsAccount(ctx, domain.UserOwner(userID))
	if err != nil {
		return nil, err
	}
	market, err := s.accounts.EnsurePointsAccount(ctx, domain.MarketPointsOwner(marketID))
	if err != nil {
		return nil, err
	}
	return s.CommitTransaction(ctx, domain.TransactionFundMarket, []domain.MutationRequest{
		{AccountID: user.AccountID, Amount: amount.Neg()},
		{AccountID: market.AccountID, Amount: amount},
	})
}

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	if transactionID <= 0 {
		return nil, fmt.Errorf("%w: invalid transaction ID %d", apperrors.ErrValidation, transactionID)
	}
	return s.ledgerRepo.FindTransactionByID(ctx, transactionID)
}
