package models

import "time"

// OwnerKind mirrors the account_owner_kind enum.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "user"
	OwnerMarketPoints OwnerKind = "market_points"
	OwnerMarketPool   OwnerKind = "market_pool"
)

// Account is a row of the account table. Owner columns are nullable; which
// ones are set depends on OwnerKind.
type Account struct {
	ID            int64     `db:"id"`
	OwnerKind     OwnerKind `db:"owner_kind"`
	OwnerUserID   *int64    `db:"owner_user_id"`
	OwnerMarketID *int64    `db:"owner_market_id"`
	OutcomeID     *int64    `db:"outcome_id"`
	Currency      string    `db:"currency"`
	CreatedAt     time.Time `db:"created_at"`
}
