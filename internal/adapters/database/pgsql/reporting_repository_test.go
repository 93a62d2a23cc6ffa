package pgsql_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/core/services"
	"github.com/SscSPs/points_ledger/internal/platform/pgtestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxReportingRepository_TradingVolumeAndCapitalization(t *testing.T) {
	pool := pgtestutil.NewTestPool(t)
	repos := pgsql.NewRepositoryProvider(pool)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	accounts := services.NewAccountService(repos.AccountRepo)
	ledger := services.NewLedgerService(accounts, repos.LedgerRepo, services.WithClock(func() time.Time { return clock }))

	user, err := accounts.EnsurePointsAccount(ctx, domain.UserOwner(1))
	require.NoError(t, err)
	pool51, err := accounts.EnsurePointsAccount(ctx, domain.MarketPoolOwner(5, 1))
	require.NoError(t, err)

	_, err = ledger.CreateTransactionIncome(ctx, user.Owner, amt("100"))
	require.NoError(t, err)

	for i, amount := range []string{"10", "4", "6"} {
		clock = base.Add(time.Duration(i) * time.Hour)
		_, err = ledger.CommitTransaction(ctx, domain.TransactionTrade, []domain.MutationRequest{
			{AccountID: user.AccountID, Amount: amt(amount).Neg()},
			{AccountID: pool51.AccountID, Amount: amt(amount)},
		})
		require.NoError(t, err)
	}

	total, err := repos.ReportRepo.GetTradingVolume(ctx, 5, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "20.00", total.String())

	start, end := base.Add(time.Hour), base.Add(2*time.Hour)
	window, err := repos.ReportRepo.GetTradingVolume(ctx, 5, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, "4.00", window.String(), "start inclusive, end exclusive")

	_, err = ledger.FundMarket(ctx, 1, 5, amt("12.5"))
	require.NoError(t, err)
	_, err = accounts.EnsurePointsAccount(ctx, domain.MarketPointsOwner(6))
	require.NoError(t, err)

	caps, err := repos.ReportRepo.GetMarketCapitalizations(ctx)
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, int64(5), caps[0].MarketID)
	assert.Equal(t, "12.50", caps[0].Capitalization.String())
	assert.Equal(t, int64(6), caps[1].MarketID)
	assert.True(t, caps[1].Capitalization.IsZero())
}
