// Package rediscache keeps current account balances in Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/points_ledger/internal/core/ports/repositories"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ledger:balance:"

// Each key is a hash {m: mutation id, b: balance}. The write is skipped when
// the cached mutation id is newer than the incoming one.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'm')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'm', ARGV[1], 'b', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// tombstone keeps the mutation id and drops the balance. Later fills from
// snapshots older than the tombstone are refused by setIfNewer.
var tombstone = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'm')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'm', ARGV[1])
redis.call('HDEL', KEYS[1], 'b')
if tonumber(ARGV[2]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// BalanceCache implements portsrepo.BalanceCache on Redis.
type BalanceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ portsrepo.BalanceCache = (*BalanceCache)(nil)

// NewBalanceCache returns a cache whose entries expire after ttl; zero keeps them.
func NewBalanceCache(client redis.Cmdable, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

// NewClient connects to Redis and pings it once.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Key is the Redis key of an account balance.
func Key(accountID int64) string {
	return keyPrefix + strconv.FormatInt(accountID, 10)
}

func (c *BalanceCache) GetBalance(ctx context.Context, accountID int64) (domain.Amount, bool, error) {
	val, err := c.client.HGet(ctx, Key(accountID), "b").Result()
	if errors.Is(err, redis.Nil) {
		return domain.Amount{}, false, nil
	}
	if err != nil {
		return domain.Amount{}, false, fmt.Errorf("redis get balance %d: %w", accountID, err)
	}
	bal, err := domain.ParseAmount(val)
	if err != nil {
		return domain.Amount{}, false, fmt.Errorf("cached balance %d is malformed: %w", accountID, err)
	}
	return bal, true, nil
}

func (c *BalanceCache) SetBalance(ctx context.Context, snapshot domain.BalanceSnapshot) error {
	err := setIfNewer.Run(ctx, c.client,
		[]string{Key(snapshot.AccountID)},
		snapshot.MutationID, snapshot.PostBalance.String(), c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set balance %d: %w", snapshot.AccountID, err)
	}
	return nil
}

func (c *BalanceCache) Invalidate(ctx context.Context, accountID, mutationID int64) error {
	err := tombstone.Run(ctx, c.client, []string{Key(accountID)}, mutationID, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis invalidate balance %d: %w", accountID, err)
	}
	return nil
}
