package idempotency

import (
	"context"
	"time"

	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "curbside:seen:"

// RedisStore shares seen ids across processes with a TTL per key
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) WasSeenBefore(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check event de-duplication store").
			Mark(ierr.ErrSystem)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkSeen(ctx context.Context, id string) error {
	if err := s.client.SetNX(ctx, redisKeyPrefix+id, 1, s.ttl).Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update event de-duplication store").
			Mark(ierr.ErrSystem)
	}
	return nil
}
