package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// RedisStatusCache keeps the latest known order status for cheap storefront
// polling. Strictly best effort; the ledger stays authoritative.
type RedisStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusCache(rdb *redis.Client, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatusCache) SetStatus(ctx context.Context, orderID int64, status string) error {
	return c.rdb.Set(ctx, statusKey(orderID), status, c.ttl).Err()
}

func (c *RedisStatusCache) GetStatus(ctx context.Context, orderID int64) (string, bool, error) {
	val, err := c.rdb.Get(ctx, statusKey(orderID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	return val, err == nil, err
}

func statusKey(orderID int64) string {
	return "order:status:" + strconv.FormatInt(orderID, 10)
}

var _ usecase.StatusCache = (*RedisStatusCache)(nil)
