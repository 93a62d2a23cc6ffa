package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	args := m.Called(ctx, owner, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByOwner(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	args := m.Called(ctx, owner, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByMarket(ctx context.Context, marketID int64) ([]domain.Account, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// MockBalanceCache is a mock type for the BalanceCache interface
type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) GetBalance(ctx context.Context, accountID int64) (domain.Amount, bool, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.Amount), args.Bool(1), args.Error(2)
}

func (m *MockBalanceCache) SetBalance(ctx context.Context, snapshot domain.BalanceSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, accountID, mutationID int64) error {
	args := m.Called(ctx, accountID, mutationID)
	return args.Error(0)
}

// MockReportingRepository is a mock type for the ReportingRepository interface
type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) GetTradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (domain.Amount, error) {
	args := m.Called(ctx, marketID, start, end)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockReportingRepository) GetMarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MarketCapitalization), args.Error(1)
}

// MockPublisher is a mock type for the events.Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTransactionCommitted(ctx context.Context, ev events.TransactionCommitted) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
