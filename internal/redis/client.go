package redis

import (
	"context"
	"time"

	"github.com/flexprice/curbside/internal/config"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/types"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// NewClient connects to redis when it backs event de-duplication.
// It returns a nil client for the in-memory backend.
func NewClient(cfg *config.Configuration, log *logger.Logger) (*redis.Client, error) {
	if cfg.Dedup.Backend != types.DedupBackendRedis {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ierr.WithError(err).
			WithHintf("Failed to connect to redis at %s", cfg.Redis.Address).
			Mark(ierr.ErrSystem)
	}

	log.Infow("connected to redis", "address", cfg.Redis.Address, "db", cfg.Redis.DB)
	return client, nil
}
