package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/points_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type balanceFixture struct {
	store    *memory.Store
	repos    portsrepo.RepositoryProvider
	ledger   portssvc.LedgerSvcFacade
	balances portssvc.BalanceSvcFacade
	account  *domain.Account
}

func newBalanceFixture(t *testing.T, incomes ...string) balanceFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := memory.NewRepositoryProvider(store)
	accounts := services.NewAccountService(repos.AccountRepo)
	f := balanceFixture{
		store:    store,
		repos:    repos,
		ledger:   services.NewLedgerService(accounts, repos.LedgerRepo),
		balances: services.NewBalanceService(repos.AccountRepo, repos.LedgerRepo, services.WithHistoryPageSize(2)),
	}
	acc, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(1))
	require.NoError(t, err)
	f.account = acc
	for _, s := range incomes {
		_, err := f.ledger.CreateTransactionIncome(ctx, domain.UserOwner(1), amt(s))
		require.NoError(t, err)
	}
	return f
}

func TestCurrentBalance(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t)

	bal, err := f.balances.CurrentBalance(ctx, f.account.AccountID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	_, err = f.balances.CurrentBalance(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	_, err = f.balances.CurrentBalance(ctx, -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestHistory_ReplayEquivalence(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t, "100", "50", "0.10", "0.20", "7")

	seq := f.balances.History(ctx, f.account.AccountID)

	for range 2 {
		var (
			ids []int64
			sum = domain.ZeroAmount
		)
		for entry, err := range seq {
			require.NoError(t, err)
			ids = append(ids, entry.MutationID)
			sum, err = sum.Add(entry.Amount)
			require.NoError(t, err)
			assert.True(t, entry.PostBalance.Equal(sum))
			assert.Equal(t, domain.TransactionIncome, entry.TransactionType)
		}
		assert.Len(t, ids, 5)
		assert.IsIncreasing(t, ids)

		bal, err := f.balances.CurrentBalance(ctx, f.account.AccountID)
		require.NoError(t, err)
		assert.Equal(t, "157.30", bal.String())
		assert.True(t, bal.Equal(sum))
	}
}

func TestHistory_EarlyBreakAndEmpty(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t, "1", "2", "3")

	n := 0
	for _, err := range f.balances.History(ctx, f.account.AccountID) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	empty := newBalanceFixture(t)
	for range empty.balances.History(ctx, empty.account.AccountID) {
		t.Fatal("fresh account has no history")
	}

	var gotErr error
	for _, err := range f.balances.History(ctx, 999) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, apperrors.ErrAccountNotFound)
}

func TestHistoryPage(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t, "1", "2", "3")

	first, err := f.balances.HistoryPage(ctx, f.account.AccountID, 0, 2)
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, first.Entries[1].MutationID, first.NextCursor)

	second, err := f.balances.HistoryPage(ctx, f.account.AccountID, first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Zero(t, second.NextCursor)
	assert.Equal(t, "6.00", second.Entries[0].PostBalance.String())

	_, err = f.balances.HistoryPage(ctx, f.account.AccountID, -5, 2)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestVerifyAccount(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t, "100", "50", "25")

	report, err := f.balances.VerifyAccount(ctx, f.account.AccountID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Entries)
	assert.Equal(t, "175.00", report.Balance.String())

	page, err := f.balances.HistoryPage(ctx, f.account.AccountID, 0, 10)
	require.NoError(t, err)
	second := page.Entries[1].MutationID
	require.True(t, f.store.CorruptSnapshot(f.account.AccountID, second, amt("151")))

	_, err = f.balances.VerifyAccount(ctx, f.account.AccountID)
	var integrityErr *apperrors.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, second, integrityErr.MutationID)
	assert.Equal(t, "151.00", integrityErr.Stored)
	assert.Equal(t, "150.00", integrityErr.Recomputed)

	fresh := newBalanceFixture(t)
	report, err = fresh.balances.VerifyAccount(ctx, fresh.account.AccountID)
	require.NoError(t, err)
	assert.Zero(t, report.Entries)
	assert.True(t, report.Balance.IsZero())
}

func TestCurrentBalance_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newBalanceFixture(t, "40")

	t.Run("hit", func(t *testing.T) {
		cache := new(MockBalanceCache)
		cache.On("GetBalance", mock.Anything, f.account.AccountID).Return(amt("40"), true, nil).Once()
		svc := services.NewBalanceService(f.repos.AccountRepo, f.repos.LedgerRepo, services.WithReadThroughCache(cache))

		bal, err := svc.CurrentBalance(ctx, f.account.AccountID)
		require.NoError(t, err)
		assert.Equal(t, "40.00", bal.String())
		cache.AssertExpectations(t)
		cache.AssertNotCalled(t, "SetBalance", mock.Anything, mock.Anything)
	})

	t.Run("miss fills", func(t *testing.T) {
		cache := new(MockBalanceCache)
		cache.On("GetBalance", mock.Anything, f.account.AccountID).Return(domain.Amount{}, false, nil).Once()
		cache.On("SetBalance", mock.Anything, mock.MatchedBy(func(s domain.BalanceSnapshot) bool {
			return s.AccountID == f.account.AccountID && s.MutationID > 0 && s.PostBalance.Equal(amt("40"))
		})).Return(nil).Once()
		svc := services.NewBalanceService(f.repos.AccountRepo, f.repos.LedgerRepo, services.WithReadThroughCache(cache))

		bal, err := svc.CurrentBalance(ctx, f.account.AccountID)
		require.NoError(t, err)
		assert.Equal(t, "40.00", bal.String())
		cache.AssertExpectations(t)
	})

	t.Run("cache errors fall back to store", func(t *testing.T) {
		cache := new(MockBalanceCache)
		cache.On("GetBalance", mock.Anything, f.account.AccountID).Return(domain.Amount{}, false, errors.New("timeout")).Once()
		cache.On("SetBalance", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
		svc := services.NewBalanceService(f.repos.AccountRepo, f.repos.LedgerRepo, services.WithReadThroughCache(cache))

		bal, err := svc.CurrentBalance(ctx, f.account.AccountID)
		require.NoError(t, err)
		assert.Equal(t, "40.00", bal.String())
	})
}
