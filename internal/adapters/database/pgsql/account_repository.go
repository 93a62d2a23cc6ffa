package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/points_ledger/internal/models"
	"github.com/SscSPs/points_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, owner_kind::text, owner_user_id, owner_market_id, outcome_id, currency, created_at`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.ID,
		&m.OwnerKind,
		&m.OwnerUserID,
		&m.OwnerMarketID,
		&m.OutcomeID,
		&m.Currency,
		&m.CreatedAt,
	)
	return m, err
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()

	var ms []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(ms)
}

// EnsureAccount inserts the account unless the unique owner index already holds
// one, then reads whichever row won. Concurrent callers converge on one ID.
func (r *PgxAccountRepository) EnsureAccount(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	row := mapping.ToModelAccount(owner, currency)

	query := `
		INSERT INTO account (owner_kind, owner_user_id, owner_market_id, outcome_id, currency)
		VALUES ($1::account_owner_kind, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING ` + accountColumns + `;
	`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query,
		string(row.OwnerKind),
		row.OwnerUserID,
		row.OwnerMarketID,
		row.OutcomeID,
		row.Currency,
	))
	switch {
	case err == nil:
		acc, mapErr := mapping.ToDomainAccount(m)
		if mapErr != nil {
			return nil, mapErr
		}
		return &acc, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Another writer created it first.
		return r.FindAccountByOwner(ctx, owner, currency)
	case isUniqueViolation(err):
		return nil, fmt.Errorf("%w: account for %s: %v", apperrors.ErrDuplicate, owner, err)
	default:
		return nil, wrapDBError(err, fmt.Sprintf("failed to ensure account for %s", owner))
	}
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ID %d", apperrors.ErrAccountNotFound, accountID)
		}
		return nil, wrapDBError(err, fmt.Sprintf("failed to find account by ID %d", accountID))
	}
	acc, err := mapping.ToDomainAccount(m)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// FindAccountByOwner retrieves the account of owner in currency.
func (r *PgxAccountRepository) FindAccountByOwner(ctx context.Context, owner domain.Owner, currency domain.Currency) (*domain.Account, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	row := mapping.ToModelAccount(owner, currency)

	query := `
		SELECT ` + accountColumns + `
		FROM account
		WHERE owner_kind = $1::account_owner_kind
		  AND owner_user_id IS NOT DISTINCT FROM $2
		  AND owner_market_id IS NOT DISTINCT FROM $3
		  AND outcome_id IS NOT DISTINCT FROM $4
		  AND currency = $5;
	`
	m, err := scanAccount(r.Pool.QueryRow(ctx, query,
		string(row.OwnerKind),
		row.OwnerUserID,
		row.OwnerMarketID,
		row.OutcomeID,
		row.Currency,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: owner %s currency %s", apperrors.ErrAccountNotFound, owner, currency)
		}
		return nil, wrapDBError(err, fmt.Sprintf("failed to find account for %s", owner))
	}
	acc, err := mapping.ToDomainAccount(m)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// ListAccountsByUser lists the user's accounts, points first.
func (r *PgxAccountRepository) ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM account
		WHERE owner_kind = 'user' AND owner_user_id = $1
		ORDER BY (currency = 'points') DESC, id;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("failed to list accounts for user %d", userID))
	}
	return collectAccounts(rows)
}

// ListAccountsByMarket lists the market points account, then its pools by outcome.
func (r *PgxAccountRepository) ListAccountsByMarket(ctx context.Context, marketID int64) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM account
		WHERE owner_market_id = $1
		ORDER BY outcome_id NULLS FIRST, currency, id;
	`
	rows, err := r.Pool.Query(ctx, query, marketID)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("failed to list accounts for market %d", marketID))
	}
	return collectAccounts(rows)
}
