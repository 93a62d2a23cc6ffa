package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new repository for market aggregates.
func newPgxReportingRepository(pool *pgxpool.Pool) *PgxReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// GetTradingVolume sums the credited legs of the market's trades in [start, end).
func (r *PgxReportingRepository) GetTradingVolume(ctx context.Context, marketID int64, start, end *time.Time) (domain.Amount, error) {
	query := `
		SELECT COALESCE(SUM(m.amount), 0.00)
		FROM mutation m
		JOIN "transaction" t ON t.id = m.transaction_id
		WHERE t.type = 'trade'
		  AND m.amount > 0
		  AND ($2::timestamptz IS NULL OR t.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR t.created_at < $3)
		  AND EXISTS (
		    SELECT 1
		    FROM mutation mm
		    JOIN account a ON a.id = mm.account_id
		    WHERE mm.transaction_id = t.id AND a.owner_market_id = $1
		  );
	`
	var volume decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, marketID, start, end).Scan(&volume); err != nil {
		return domain.Amount{}, wrapDBError(err, fmt.Sprintf("failed to sum trading volume of market %d", marketID))
	}
	return domain.NewAmount(volume)
}

// GetMarketCapitalizations reads the latest snapshot of every market points account.
func (r *PgxReportingRepository) GetMarketCapitalizations(ctx context.Context) ([]domain.MarketCapitalization, error) {
	query := `
		SELECT a.owner_market_id, a.id, COALESCE(b.post_balance, 0.00) AS capitalization
		FROM account a
		LEFT JOIN LATERAL (
		  SELECT post_balance
		  FROM account_balance
		  WHERE account_id = a.id
		  ORDER BY mutation_id DESC
		  LIMIT 1
		) b ON true
		WHERE a.owner_kind = 'market_points' AND a.currency = $1
		ORDER BY capitalization DESC, a.owner_market_id;
	`
	rows, err := r.Pool.Query(ctx, query, string(domain.CurrencyPoints))
	if err != nil {
		return nil, wrapDBError(err, "failed to query market capitalizations")
	}
	defer rows.Close()

	caps := []domain.MarketCapitalization{}
	for rows.Next() {
		var (
			c   domain.MarketCapitalization
			bal decimal.Decimal
		)
		if err := rows.Scan(&c.MarketID, &c.AccountID, &bal); err != nil {
			return nil, fmt.Errorf("failed to scan capitalization row: %w", err)
		}
		if c.Capitalization, err = domain.NewAmount(bal); err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capitalization rows: %w", err)
	}
	return caps, nil
}
