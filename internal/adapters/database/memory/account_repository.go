package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
)

// AccountRepository implements the account ports over a Store.
type AccountRepository struct {
	store *Store
}

var _ portsrepo.AccountRepositoryFacade = (*AccountRepository)(nil)

func (r *AccountRepository) EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	s := r.store
	key := ownerKey{owner: owner, currency: currency}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byOwner[key]; ok {
		acc := s.accounts[id]
		return &acc, nil
	}
	s.nextAccountID++
	acc := domain.Account{
		AccountID: s.nextAccountID,
		Owner:     owner,
		Currency:  currency,
		CreatedAt: s.now().UTC(),
	}
	s.accounts[acc.AccountID] = acc
	s.byOwner[key] = acc.AccountID
	return &acc, nil
}

func (r *AccountRepository) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, notFound(accountID)
	}
	return &acc, nil
}

func (r *AccountRepository) FindAccountByOwner(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[ownerKey{owner: owner, currency: currency}]
	if !ok {
		return nil, fmt.Errorf("%w: owner %s currency %s", apperrors.ErrAccountNotFound, owner, currency)
	}
	acc := s.accounts[id]
	return &acc, nil
}

func (r *AccountRepository) ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts := r.filter(func(a domain.Account) bool {
		return a.Owner.Kind == domain.OwnerUser && a.Owner.UserID == userID
	})
	slices.SortFunc(accounts, func(a, b domain.Account) int {
		aPoints, bPoints := a.Currency == domain.CurrencyPoints, b.Currency == domain.CurrencyPoints
		if aPoints != bPoints {
			if aPoints {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.AccountID, b.AccountID)
	})
	return accounts, nil
}

func (r *AccountRepository) ListAccountsByMarket(ctx context.Context, marketID int64) ([]domain.Account, error) {
	accounts := r.filter(func(a domain.Account) bool {
		return a.Owner.Kind != domain.OwnerUser && a.Owner.MarketID == marketID
	})
	slices.SortFunc(accounts, func(a, b domain.Account) int {
		return cmp.Or(
			cmp.Compare(a.Owner.OutcomeID, b.Owner.OutcomeID),
			cmp.Compare(a.Currency, b.Currency),
			cmp.Compare(a.AccountID, b.AccountID),
		)
	})
	return accounts, nil
}

func (r *AccountRepository) filter(keep func(domain.Account) bool) []domain.Account {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Account{}
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
