package idempotency

import (
	"context"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps seen ids for the lifetime of the process only
type MemoryStore struct {
	cache *goCache.Cache
	ttl   time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: goCache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

func (s *MemoryStore) WasSeenBefore(_ context.Context, id string) (bool, error) {
	_, found := s.cache.Get(id)
	return found, nil
}

func (s *MemoryStore) MarkSeen(_ context.Context, id string) error {
	s.cache.Set(id, struct{}{}, s.ttl)
	return nil
}
