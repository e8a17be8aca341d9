package idempotency

import (
	"context"
	"time"

	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/types"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a seen event id is remembered
const DefaultTTL = 72 * time.Hour

// Store remembers provider event ids so redelivered events are skipped.
// It is best effort: a miss only means duplicate work, never a wrong result.
type Store interface {
	WasSeenBefore(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string) error
}

// NewStore picks the backend configured under dedup.backend
func NewStore(cfg *config.Configuration, client *redis.Client, log *logger.Logger) Store {
	ttl := cfg.Dedup.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if cfg.Dedup.Backend == types.DedupBackendRedis && client != nil {
		log.Infow("using redis event de-duplication", "ttl", ttl.String())
		return NewRedisStore(client, ttl)
	}

	log.Infow("using in-memory event de-duplication", "ttl", ttl.String())
	return NewMemoryStore(ttl)
}
