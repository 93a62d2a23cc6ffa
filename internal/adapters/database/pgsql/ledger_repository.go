package pgsql

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/points_ledger/internal/models"
	"github.com/SscSPs/points_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for the transaction log,
// the mutation ledger and the balance snapshots.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// WithinTx runs fn in one database transaction.
func (r *PgxLedgerRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &pgxLedgerTx{tx: tx})
	})
}

// LatestSnapshot returns the latest snapshot of the account.
func (r *PgxLedgerRepository) LatestSnapshot(ctx context.Context, accountID int64) (domain.BalanceSnapshot, error) {
	return latestSnapshot(ctx, r.Pool, accountID)
}

// ListEntries returns a page of the account history in mutation order.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, accountID int64, afterMutationID int64, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT m.id, m.transaction_id, t.type::text, t.created_at, m.amount, b.post_balance
		FROM mutation m
		JOIN "transaction" t ON t.id = m.transaction_id
		JOIN account_balance b ON b.mutation_id = m.id AND b.account_id = m.account_id
		WHERE m.account_id = $1 AND m.id > $2
		ORDER BY m.id
		LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, afterMutationID, limit)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("failed to query history of account %d", accountID))
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var m models.LedgerEntry
		if err := rows.Scan(&m.MutationID, &m.TransactionID, &m.TransactionType, &m.CreatedAt, &m.Amount, &m.PostBalance); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry, err := mapping.ToDomainLedgerEntry(m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}

// FindTransactionByID retrieves a transaction and its mutations with their post balances.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	var t models.Transaction
	err := r.Pool.QueryRow(ctx,
		`SELECT id, type::text, created_at FROM "transaction" WHERE id = $1;`,
		transactionID,
	).Scan(&t.ID, &t.Type, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %d", apperrors.ErrNotFound, transactionID)
		}
		return nil, wrapDBError(err, fmt.Sprintf("failed to find transaction %d", transactionID))
	}

	query := `
		SELECT m.id, m.transaction_id, m.account_id, m.amount, b.post_balance
		FROM mutation m
		JOIN account_balance b ON b.mutation_id = m.id AND b.account_id = m.account_id
		WHERE m.transaction_id = $1
		ORDER BY m.id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("failed to query mutations of transaction %d", transactionID))
	}
	defer rows.Close()

	var ms []models.Mutation
	for rows.Next() {
		var m models.Mutation
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.AccountID, &m.Amount, &m.PostBalance); err != nil {
			return nil, fmt.Errorf("failed to scan mutation row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutation rows: %w", err)
	}

	tx, err := mapping.ToDomainTransaction(t, ms)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func latestSnapshot(ctx context.Context, q querier, accountID int64) (domain.BalanceSnapshot, error) {
	snap := domain.BalanceSnapshot{AccountID: accountID, PostBalance: domain.ZeroAmount}
	var post decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT mutation_id, post_balance
		FROM account_balance
		WHERE account_id = $1
		ORDER BY mutation_id DESC
		LIMIT 1;
	`, accountID).Scan(&snap.MutationID, &post)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, nil
		}
		return domain.BalanceSnapshot{}, wrapDBError(err, fmt.Sprintf("failed to read balance of account %d", accountID))
	}
	if snap.PostBalance, err = domain.NewAmount(post); err != nil {
		return domain.BalanceSnapshot{}, err
	}
	return snap, nil
}

// pgxLedgerTx is the LedgerTx handed to WithinTx callbacks.
type pgxLedgerTx struct {
	tx pgx.Tx
}

// LockAccounts takes row locks one account at a time in ascending ID order.
func (t *pgxLedgerTx) LockAccounts(ctx context.Context, accountIDs []int64) (map[int64]domain.Account, error) {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1 FOR UPDATE;`

	locked := make(map[int64]domain.Account, len(ids))
	for _, id := range ids {
		m, err := scanAccount(t.tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: ID %d", apperrors.ErrAccountNotFound, id)
			}
			return nil, wrapDBError(err, fmt.Sprintf("failed to lock account %d", id))
		}
		acc, err := mapping.ToDomainAccount(m)
		if err != nil {
			return nil, err
		}
		locked[id] = acc
	}
	return locked, nil
}

func (t *pgxLedgerTx) LatestBalance(ctx context.Context, accountID int64) (domain.Amount, error) {
	snap, err := latestSnapshot(ctx, t.tx, accountID)
	if err != nil {
		return domain.Amount{}, err
	}
	return snap.PostBalance, nil
}

func (t *pgxLedgerTx) InsertTransaction(ctx context.Context, txType domain.TransactionType, createdAt time.Time) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO "transaction" (type, created_at) VALUES ($1::transaction_type, $2) RETURNING id;`,
		string(txType), createdAt,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBError(err, "failed to insert transaction")
	}
	return id, nil
}

func (t *pgxLedgerTx) InsertMutation(ctx context.Context, transactionID, accountID int64, amount domain.Amount) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO mutation (transaction_id, account_id, amount) VALUES ($1, $2, $3) RETURNING id;`,
		transactionID, accountID, amount.Decimal(),
	).Scan(&id)
	if err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("failed to insert mutation for account %d", accountID))
	}
	return id, nil
}

func (t *pgxLedgerTx) InsertBalanceSnapshot(ctx context.Context, snapshot domain.BalanceSnapshot) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO account_balance (account_id, mutation_id, post_balance) VALUES ($1, $2, $3);`,
		snapshot.AccountID, snapshot.MutationID, snapshot.PostBalance.Decimal(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: snapshot for account %d mutation %d exists", apperrors.ErrIntegrity, snapshot.AccountID, snapshot.MutationID)
		}
		return wrapDBError(err, fmt.Sprintf("failed to insert snapshot for account %d", snapshot.AccountID))
	}
	return nil
}

func (t *pgxLedgerTx) SumMutations(ctx context.Context, accountID int64) (domain.Amount, error) {
	var sum decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM mutation WHERE account_id = $1;`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return domain.Amount{}, wrapDBError(err, fmt.Sprintf("failed to sum mutations of account %d", accountID))
	}
	return domain.NewAmount(sum)
}
