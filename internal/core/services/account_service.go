package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(repo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: repo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func validateCurrency(currency domain.Currency) error {
	if currency == "" {
		return fmt.Errorf("%w: currency is required", apperrors.ErrValidation)
	}
	return nil
}

// EnsureAccount is idempotent: every caller for the same owner and currency,
// concurrent or not, gets the same account.
func (s *accountService) EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}

	acc, err := s.accountRepo.EnsureAccount(ctx, owner, currency)
	if err != nil {
		s.LogError(ctx, err, "Failed to ensure account",
			slog.String("owner", owner.String()),
			slog.String("currency", string(currency)))
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	s.LogDebug(ctx, "Account ensured",
		slog.Int64("account_id", acc.AccountID),
		slog.String("owner", owner.String()))
	return acc, nil
}

func (s *accountService) EnsurePointsAccount(ctx context.Context, owner domain.Owner) (*domain.Account, error) {
	return s.EnsureAccount(ctx, owner, domain.CurrencyPoints)
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: invalid account ID %d", apperrors.ErrValidation, accountID)
	}
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

// ExpectAccount never creates an account.
func (s *accountService) ExpectAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}
	return s.accountRepo.FindAccountByOwner(ctx, owner, currency)
}

func (s *accountService) ExpectPointsAccount(ctx context.Context, owner domain.Owner) (*domain.Account, error) {
	return s.ExpectAccount(ctx, owner, domain.CurrencyPoints)
}

func (s *accountService) ListAccountsForUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user ID %d", apperrors.ErrValidation, userID)
	}
	accounts, err := s.accountRepo.ListAccountsByUser(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for user", slog.Int64("user_id", userID))
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) ListAccountsForMarket(ctx context.Context, marketID int64) ([]domain.Account, error) {
	if marketID <= 0 {
		return nil, fmt.Errorf("%w: invalid market ID %d", apperrors.ErrValidation, marketID)
	}
	accounts, err := s.accountRepo.ListAccountsByMarket(ctx, marketID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for market", slog.Int64("market_id", marketID))
		return nil, err
	}
	return accounts, nil
}
