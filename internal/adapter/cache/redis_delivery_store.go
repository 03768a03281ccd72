package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// RedisDeliveryStore remembers processed webhook payload digests so provider
// retries of an already-processed delivery are answered without another
// reconciliation pass.
type RedisDeliveryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeliveryStore(rdb *redis.Client, ttl time.Duration) *RedisDeliveryStore {
	return &RedisDeliveryStore{rdb: rdb, ttl: ttl}
}

func (s *RedisDeliveryStore) Recall(ctx context.Context, digest string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, "webhook:seen:"+digest).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	return val, err == nil, err
}

func (s *RedisDeliveryStore) Remember(ctx context.Context, digest, outcome string) error {
	return s.rdb.Set(ctx, "webhook:seen:"+digest, outcome, s.ttl).Err()
}

var _ usecase.DeliveryDedupe = (*RedisDeliveryStore)(nil)
