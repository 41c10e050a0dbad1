package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"monny/internal/core"
)

// Balance cache misses and backend failures look the same to callers: the
// service falls through to storage either way, so both backends are
// best-effort by construction.

// MemoryBalances caches account balances in-process.
type MemoryBalances struct {
	lru *LRU[core.Money]
}

func NewMemoryBalances(maxSize int, ttl time.Duration) *MemoryBalances {
	return &MemoryBalances{lru: NewLRU[core.Money](maxSize, ttl)}
}

func (c *MemoryBalances) GetBalance(_ context.Context, accountID int64) (core.Money, bool) {
	return c.lru.Get(balanceKey(accountID))
}

func (c *MemoryBalances) SetBalance(_ context.Context, accountID int64, balance core.Money) {
	c.lru.Set(balanceKey(accountID), balance)
}

func (c *MemoryBalances) Invalidate(_ context.Context, accountID int64) {
	c.lru.Delete(balanceKey(accountID))
}

// CleanExpired lets the Janitor sweep the underlying LRU.
func (c *MemoryBalances) CleanExpired() int {
	return c.lru.CleanExpired()
}

// RedisBalances caches account balances in Redis so multiple instances share
// invalidations.
type RedisBalances struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBalances(client *redis.Client, ttl time.Duration) *RedisBalances {
	return &RedisBalances{client: client, ttl: ttl}
}

func (c *RedisBalances) GetBalance(ctx context.Context, accountID int64) (core.Money, bool) {
	val, err := c.client.Get(ctx, balanceKey(accountID)).Result()
	if err == redis.Nil {
		return core.Money{}, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis balance read failed", "account_id", accountID, "error", err)
		return core.Money{}, false
	}
	cents, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "Corrupt cached balance dropped", "account_id", accountID, "value", val)
		_ = c.client.Del(ctx, balanceKey(accountID)).Err()
		return core.Money{}, false
	}
	return core.Money{Cents: cents}, true
}

func (c *RedisBalances) SetBalance(ctx context.Context, accountID int64, balance core.Money) {
	err := c.client.Set(ctx, balanceKey(accountID), strconv.FormatInt(balance.Cents, 10), c.ttl).Err()
	if err != nil {
		slog.WarnContext(ctx, "Redis balance write failed", "account_id", accountID, "error", err)
	}
}

func (c *RedisBalances) Invalidate(ctx context.Context, accountID int64) {
	if err := c.client.Del(ctx, balanceKey(accountID)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis balance invalidation failed", "account_id", accountID, "error", err)
	}
}

func balanceKey(accountID int64) string {
	return "balance:" + strconv.FormatInt(accountID, 10)
}
