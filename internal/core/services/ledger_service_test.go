package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/points_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func amt(s string) domain.Amount { return domain.MustParseAmount(s) }

func fastRetry(attempts int) services.RetryPolicy {
	return services.RetryPolicy{MaxAttempts: attempts, BaseBackoff: time.Microsecond, MaxBackoff: time.Millisecond}
}

type LedgerServiceTestSuite struct {
	suite.Suite
	store    *memory.Store
	accounts portssvc.AccountSvcFacade
	ledger   portssvc.LedgerSvcFacade
	balances portssvc.BalanceSvcFacade
	ctx      context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	repos := memory.NewRepositoryProvider(suite.store)
	suite.accounts = services.NewAccountService(repos.AccountRepo)
	suite.ledger = services.NewLedgerService(suite.accounts, repos.LedgerRepo, services.WithRetryPolicy(fastRetry(3)))
	suite.balances = services.NewBalanceService(repos.AccountRepo, repos.LedgerRepo, services.WithHistoryPageSize(2))
	suite.ctx = context.Background()
}

func (suite *LedgerServiceTestSuite) userAccount(userID int64) *domain.Account {
	acc, err := suite.accounts.EnsurePointsAccount(suite.ctx, domain.UserOwner(userID))
	suite.Require().NoError(err)
	return acc
}

func (suite *LedgerServiceTestSuite) fund(accountID int64, amount string) {
	acc, err := suite.accounts.GetAccountByID(suite.ctx, accountID)
	suite.Require().NoError(err)
	_, err = suite.ledger.CreateTransactionIncome(suite.ctx, acc.Owner, amt(amount))
	suite.Require().NoError(err)
}

func (suite *LedgerServiceTestSuite) balance(accountID int64) string {
	bal, err := suite.balances.CurrentBalance(suite.ctx, accountID)
	suite.Require().NoError(err)
	return bal.String()
}

func (suite *LedgerServiceTestSuite) postBalances(accountID int64) []string {
	var posts []string
	for entry, err := range suite.balances.History(suite.ctx, accountID) {
		suite.Require().NoError(err)
		posts = append(posts, entry.PostBalance.String())
	}
	return posts
}

func (suite *LedgerServiceTestSuite) counts() [3]int {
	txs, muts, snaps := suite.store.Counts()
	return [3]int{txs, muts, snaps}
}

func (suite *LedgerServiceTestSuite) TestIncome_ThenIncome() {
	a := suite.userAccount(1)
	suite.Equal("0.00", suite.balance(a.AccountID))

	tx, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("100"))
	suite.Require().NoError(err)
	suite.Equal(domain.TransactionIncome, tx.Type)
	suite.Require().Len(tx.Mutations, 1)
	suite.Equal("100.00", tx.Mutations[0].PostBalance.String())

	suite.Equal("100.00", suite.balance(a.AccountID))
	suite.Equal([]string{"100.00"}, suite.postBalances(a.AccountID))

	_, err = suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("50"))
	suite.Require().NoError(err)
	suite.Equal("150.00", suite.balance(a.AccountID))
	suite.Equal([]string{"100.00", "150.00"}, suite.postBalances(a.AccountID))
	suite.Equal([3]int{2, 2, 2}, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestIncome_CreatesAccountOnFirstUse() {
	_, err := suite.accounts.ExpectPointsAccount(suite.ctx, domain.UserOwner(77))
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)

	_, err = suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(77), amt("5"))
	suite.Require().NoError(err)

	acc, err := suite.accounts.ExpectPointsAccount(suite.ctx, domain.UserOwner(77))
	suite.Require().NoError(err)
	suite.Equal("5.00", suite.balance(acc.AccountID))
}

func (suite *LedgerServiceTestSuite) TestIncome_RejectsNonPositive() {
	for _, s := range []string{"0", "-1"} {
		_, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt(s))
		suite.ErrorIs(err, apperrors.ErrValidation)
	}
	suite.Equal([3]int{0, 0, 0}, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestConcurrentIncome_NoLostUpdates() {
	b := suite.userAccount(2)

	var wg sync.WaitGroup
	for _, amount := range []string{"10", "20"} {
		wg.Add(1)
		go func(amount string) {
			defer wg.Done()
			_, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(2), amt(amount))
			assert.NoError(suite.T(), err)
		}(amount)
	}
	wg.Wait()

	suite.Equal("30.00", suite.balance(b.AccountID))
	posts := suite.postBalances(b.AccountID)
	suite.Require().Len(posts, 2)
	suite.Contains([][]string{{"10.00", "30.00"}, {"20.00", "30.00"}}, posts)
}

func (suite *LedgerServiceTestSuite) TestConcurrentIncome_ManyWriters() {
	acc := suite.userAccount(3)

	const writers = 50
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionIncome,
				[]domain.MutationRequest{{AccountID: acc.AccountID, Amount: amt("1.25")}})
			assert.NoError(suite.T(), err)
		}()
	}
	wg.Wait()

	suite.Equal("62.50", suite.balance(acc.AccountID))
	report, err := suite.balances.VerifyAccount(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(writers, report.Entries)
}

func (suite *LedgerServiceTestSuite) TestTransfer_Succeeds() {
	a, b := suite.userAccount(1), suite.userAccount(2)
	suite.fund(a.AccountID, "100")

	tx, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionTransfer, []domain.MutationRequest{
		{AccountID: a.AccountID, Amount: amt("-40")},
		{AccountID: b.AccountID, Amount: amt("40")},
	})
	suite.Require().NoError(err)

	suite.Equal("60.00", suite.balance(a.AccountID))
	suite.Equal("40.00", suite.balance(b.AccountID))

	sum, err := domain.SumAmounts(tx.Mutations[0].Amount, tx.Mutations[1].Amount)
	suite.Require().NoError(err)
	suite.True(sum.IsZero())
}

func (suite *LedgerServiceTestSuite) TestTransfer_InsufficientBalance() {
	a, b := suite.userAccount(1), suite.userAccount(2)
	suite.fund(a.AccountID, "60")
	before := suite.counts()

	_, err := suite.ledger.Transfer(suite.ctx, a.AccountID, b.AccountID, amt("200"))
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)

	suite.Equal("60.00", suite.balance(a.AccountID))
	suite.Equal("0.00", suite.balance(b.AccountID))
	suite.Equal(before, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestTransfer_FromEmptyAccount() {
	a, b := suite.userAccount(1), suite.userAccount(2)

	_, err := suite.ledger.Transfer(suite.ctx, a.AccountID, b.AccountID, amt("0.01"))
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
	suite.Equal("0.00", suite.balance(a.AccountID))
}

func (suite *LedgerServiceTestSuite) TestTransfer_ConservationViolation() {
	a, b := suite.userAccount(1), suite.userAccount(2)
	suite.fund(a.AccountID, "100")
	before := suite.counts()

	_, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionTransfer, []domain.MutationRequest{
		{AccountID: a.AccountID, Amount: amt("-10")},
		{AccountID: b.AccountID, Amount: amt("15")},
	})
	suite.ErrorIs(err, apperrors.ErrConservationViolation)
	suite.Equal(before, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestCommit_UnknownAccount() {
	a := suite.userAccount(1)
	suite.fund(a.AccountID, "10")

	_, err := suite.ledger.Transfer(suite.ctx, a.AccountID, 9999, amt("5"))
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	suite.Equal("10.00", suite.balance(a.AccountID))
}

func (suite *LedgerServiceTestSuite) TestCommit_UnknownAccountReportedBeforeConservation() {
	a := suite.userAccount(1)
	suite.fund(a.AccountID, "10")
	before := suite.counts()

	_, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionTransfer, []domain.MutationRequest{
		{AccountID: a.AccountID, Amount: amt("-5")},
		{AccountID: 9999, Amount: amt("7")},
	})
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	suite.NotErrorIs(err, apperrors.ErrConservationViolation)
	suite.Equal(before, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestCommit_InvalidType() {
	a := suite.userAccount(1)

	_, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionType("mint"),
		[]domain.MutationRequest{{AccountID: a.AccountID, Amount: amt("5")}})
	suite.ErrorIs(err, apperrors.ErrInvalidTransactionType)
}

func (suite *LedgerServiceTestSuite) TestTrade_PoolMayRunNegative() {
	user := suite.userAccount(1)
	pool, err := suite.accounts.EnsurePointsAccount(suite.ctx, domain.MarketPoolOwner(4, 2))
	suite.Require().NoError(err)
	suite.fund(user.AccountID, "10")

	_, err = suite.ledger.CommitTransaction(suite.ctx, domain.TransactionTrade, []domain.MutationRequest{
		{AccountID: pool.AccountID, Amount: amt("-25")},
		{AccountID: user.AccountID, Amount: amt("25")},
	})
	suite.Require().NoError(err)
	suite.Equal("-25.00", suite.balance(pool.AccountID))
	suite.Equal("35.00", suite.balance(user.AccountID))
}

func (suite *LedgerServiceTestSuite) TestFundMarket() {
	user := suite.userAccount(1)
	suite.fund(user.AccountID, "100")

	tx, err := suite.ledger.FundMarket(suite.ctx, 1, 12, amt("30"))
	suite.Require().NoError(err)
	suite.Equal(domain.TransactionFundMarket, tx.Type)

	market, err := suite.accounts.ExpectPointsAccount(suite.ctx, domain.MarketPointsOwner(12))
	suite.Require().NoError(err)
	suite.Equal("30.00", suite.balance(market.AccountID))
	suite.Equal("70.00", suite.balance(user.AccountID))

	_, err = suite.ledger.FundMarket(suite.ctx, 1, 12, amt("500"))
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
}

func (suite *LedgerServiceTestSuite) TestAtomicity_FailureMidway() {
	a, b, c := suite.userAccount(1), suite.userAccount(2), suite.userAccount(3)
	suite.fund(a.AccountID, "100")
	before := suite.counts()

	boom := errors.New("disk full")
	suite.store.SetFault(func(op string, accountID int64) error {
		if op == "insert_snapshot" && accountID == c.AccountID {
			return boom
		}
		return nil
	})

	_, err := suite.ledger.CommitTransaction(suite.ctx, domain.TransactionTransfer, []domain.MutationRequest{
		{AccountID: a.AccountID, Amount: amt("-30")},
		{AccountID: b.AccountID, Amount: amt("10")},
		{AccountID: c.AccountID, Amount: amt("20")},
	})
	suite.ErrorIs(err, boom)

	suite.store.SetFault(nil)
	suite.Equal(before, suite.counts())
	suite.Equal("100.00", suite.balance(a.AccountID))
	suite.Equal("0.00", suite.balance(b.AccountID))
}

func (suite *LedgerServiceTestSuite) TestRetry_ConflictThenSuccess() {
	a := suite.userAccount(1)

	var commits atomic.Int32
	suite.store.SetFault(func(op string, _ int64) error {
		if op == "commit" && commits.Add(1) <= 2 {
			return fmt.Errorf("%w: could not serialize access", apperrors.ErrConflictRetryable)
		}
		return nil
	})

	_, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("8"))
	suite.Require().NoError(err)
	suite.Equal(int32(3), commits.Load())
	suite.Equal("8.00", suite.balance(a.AccountID))
	suite.Equal([3]int{1, 1, 1}, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestRetry_Exhausted() {
	a := suite.userAccount(1)

	suite.store.SetFault(func(op string, _ int64) error {
		if op == "commit" {
			return apperrors.ErrConflictRetryable
		}
		return nil
	})

	_, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("8"))
	suite.ErrorIs(err, apperrors.ErrConflictRetryable)
	suite.True(apperrors.IsRetryable(err))

	suite.store.SetFault(nil)
	suite.Equal("0.00", suite.balance(a.AccountID))
	suite.Equal([3]int{0, 0, 0}, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestIntegrity_CorruptSnapshotAbortsCommit() {
	a := suite.userAccount(1)
	tx, err := suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("100"))
	suite.Require().NoError(err)
	suite.Require().True(suite.store.CorruptSnapshot(a.AccountID, tx.Mutations[0].MutationID, amt("90")))
	before := suite.counts()

	_, err = suite.ledger.CreateTransactionIncome(suite.ctx, domain.UserOwner(1), amt("1"))

	var integrityErr *apperrors.IntegrityError
	suite.Require().ErrorAs(err, &integrityErr)
	suite.Equal(a.AccountID, integrityErr.AccountID)
	suite.Equal("91.00", integrityErr.Stored)
	suite.Equal("101.00", integrityErr.Recomputed)
	suite.False(apperrors.IsRetryable(err))
	suite.Equal(before, suite.counts())
}

func (suite *LedgerServiceTestSuite) TestOpposingTransfers_DoNotDeadlock() {
	a, b := suite.userAccount(1), suite.userAccount(2)
	suite.fund(a.AccountID, "1000")
	suite.fund(b.AccountID, "1000")

	ctx, cancel := context.WithTimeout(suite.ctx, 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := range 40 {
		from, to := a.AccountID, b.AccountID
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.ledger.Transfer(ctx, from, to, amt("1"))
			assert.NoError(suite.T(), err)
		}()
	}
	wg.Wait()

	suite.Equal("1000.00", suite.balance(a.AccountID))
	suite.Equal("1000.00", suite.balance(b.AccountID))
}

func (suite *LedgerServiceTestSuite) TestGetTransaction() {
	a, b := suite.userAccount(1), suite.userAccount(2)
	suite.fund(a.AccountID, "50")

	committed, err := suite.ledger.Transfer(suite.ctx, a.AccountID, b.AccountID, amt("20"))
	suite.Require().NoError(err)

	got, err := suite.ledger.GetTransaction(suite.ctx, committed.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(committed.TransactionID, got.TransactionID)
	suite.Equal(domain.TransactionTransfer, got.Type)
	suite.Require().Len(got.Mutations, 2)
	suite.Equal("30.00", got.Mutations[0].PostBalance.String())
	suite.Equal("20.00", got.Mutations[1].PostBalance.String())

	_, err = suite.ledger.GetTransaction(suite.ctx, 12345)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.ledger.GetTransaction(suite.ctx, 0)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func TestLedgerService_AfterCommitHooks(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositoryProvider(memory.NewStore())
	accounts := services.NewAccountService(repos.AccountRepo)

	cache := new(MockBalanceCache)
	publisher := new(MockPublisher)
	ledger := services.NewLedgerService(accounts, repos.LedgerRepo,
		services.WithBalanceCache(cache),
		services.WithEventPublisher(publisher),
		services.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)

	cache.On("SetBalance", mock.Anything, mock.MatchedBy(func(s domain.BalanceSnapshot) bool {
		return s.PostBalance.Equal(amt("15"))
	})).Return(errors.New("redis down")).Once()
	cache.On("Invalidate", mock.Anything, int64(1), int64(1)).Return(nil).Once()
	publisher.On("PublishTransactionCommitted", mock.Anything, mock.MatchedBy(func(ev events.TransactionCommitted) bool {
		return ev.Type == domain.TransactionIncome &&
			len(ev.Mutations) == 1 &&
			ev.Mutations[0].Amount.Equal(amt("15")) &&
			ev.EventID != "" &&
			ev.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	})).Return(errors.New("broker unavailable")).Once()

	tx, err := ledger.CreateTransactionIncome(ctx, domain.UserOwner(1), amt("15"))
	require.NoError(t, err, "post-commit failures never fail the commit")
	assert.NotZero(t, tx.TransactionID)

	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
