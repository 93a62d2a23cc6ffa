package pgsql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/points_ledger/internal/core/services"
	"github.com/SscSPs/points_ledger/internal/platform/pgtestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) domain.Amount { return domain.MustParseAmount(s) }

func TestPgxAccountRepository_EnsureAccount(t *testing.T) {
	pool := pgtestutil.NewTestPool(t)
	repos := pgsql.NewRepositoryProvider(pool)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc, err := repos.AccountRepo.EnsureAccount(ctx, domain.MarketPoolOwner(3, 1), domain.CurrencyPoints)
			if assert.NoError(t, err) {
				ids[i] = acc.AccountID
			}
		}()
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	found, err := repos.AccountRepo.FindAccountByOwner(ctx, domain.MarketPoolOwner(3, 1), domain.CurrencyPoints)
	require.NoError(t, err)
	assert.Equal(t, ids[0], found.AccountID)
	assert.Equal(t, domain.OwnerMarketPool, found.Owner.Kind)

	_, err = repos.AccountRepo.FindAccountByOwner(ctx, domain.UserOwner(99), domain.CurrencyPoints)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	_, err = repos.AccountRepo.FindAccountByID(ctx, 424242)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	_, err = repos.AccountRepo.EnsureAccount(ctx, domain.MarketPointsOwner(3), domain.CurrencyPoints)
	require.NoError(t, err)
	accounts, err := repos.AccountRepo.ListAccountsByMarket(ctx, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.OwnerMarketPoints, accounts[0].Owner.Kind)
}

func TestPgxLedgerRepository_CommitAndReplay(t *testing.T) {
	pool := pgtestutil.NewTestPool(t)
	repos := pgsql.NewRepositoryProvider(pool)
	ctx := context.Background()

	accounts := services.NewAccountService(repos.AccountRepo)
	ledger := services.NewLedgerService(accounts, repos.LedgerRepo)
	balances := services.NewBalanceService(repos.AccountRepo, repos.LedgerRepo, services.WithHistoryPageSize(2))

	alice, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(1))
	require.NoError(t, err)
	bob, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(2))
	require.NoError(t, err)

	_, err = ledger.CreateTransactionIncome(ctx, alice.Owner, amt("100"))
	require.NoError(t, err)

	tx, err := ledger.Transfer(ctx, alice.AccountID, bob.AccountID, amt("40"))
	require.NoError(t, err)
	require.Len(t, tx.Mutations, 2)
	assert.True(t, tx.Mutations[0].PostBalance.Equal(amt("60")))
	assert.True(t, tx.Mutations[1].PostBalance.Equal(amt("40")))

	_, err = ledger.Transfer(ctx, bob.AccountID, alice.AccountID, amt("40.01"))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	stored, err := ledger.GetTransaction(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTransfer, stored.Type)
	assert.Len(t, stored.Mutations, 2)

	bal, err := balances.CurrentBalance(ctx, alice.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", bal.String())

	report, err := balances.VerifyAccount(ctx, alice.AccountID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entries)
	assert.True(t, report.Balance.Equal(amt("60")))
}

func TestPgxLedgerRepository_ConcurrentTransfers(t *testing.T) {
	pool := pgtestutil.NewTestPool(t)
	repos := pgsql.NewRepositoryProvider(pool)
	ctx := context.Background()

	accounts := services.NewAccountService(repos.AccountRepo)
	ledger := services.NewLedgerService(accounts, repos.LedgerRepo)
	balances := services.NewBalanceService(repos.AccountRepo, repos.LedgerRepo)

	a, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(10))
	require.NoError(t, err)
	b, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(11))
	require.NoError(t, err)
	_, err = ledger.CreateTransactionIncome(ctx, a.Owner, amt("50"))
	require.NoError(t, err)
	_, err = ledger.CreateTransactionIncome(ctx, b.Owner, amt("50"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := a.AccountID, b.AccountID
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := ledger.Transfer(ctx, from, to, amt("1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balA, err := balances.CurrentBalance(ctx, a.AccountID)
	require.NoError(t, err)
	balB, err := balances.CurrentBalance(ctx, b.AccountID)
	require.NoError(t, err)
	total, err := balA.Add(balB)
	require.NoError(t, err)
	assert.True(t, total.Equal(amt("100")))
	assert.True(t, balA.Equal(amt("50")))
}

func TestPgxLedgerRepository_RollbackLeavesNoTrace(t *testing.T) {
	pool := pgtestutil.NewTestPool(t)
	repos := pgsql.NewRepositoryProvider(pool)
	ctx := context.Background()

	acc, err := repos.AccountRepo.EnsureAccount(ctx, domain.UserOwner(5), domain.CurrencyPoints)
	require.NoError(t, err)

	err = repos.LedgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.LockAccounts(ctx, []int64{acc.AccountID}); err != nil {
			return err
		}
		txID, err := tx.InsertTransaction(ctx, domain.TransactionIncome, time.Now())
		if err != nil {
			return err
		}
		if _, err := tx.InsertMutation(ctx, txID, acc.AccountID, amt("10")); err != nil {
			return err
		}
		return apperrors.ErrValidation
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	snap, err := repos.LedgerRepo.LatestSnapshot(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.MutationID)
	assert.True(t, snap.PostBalance.IsZero())
	entries, err := repos.LedgerRepo.ListEntries(ctx, acc.AccountID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = repos.LedgerRepo.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.LockAccounts(ctx, []int64{acc.AccountID, 987654})
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}
