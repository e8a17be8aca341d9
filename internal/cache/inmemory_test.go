package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/curbside/internal/config"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) Cache {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = enabled
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	key := GenerateKey(PrefixPrice, "price_base")
	assert.Equal(t, "price:v1::price_base", key)

	_, found := c.Get(ctx, key)
	assert.False(t, found)

	c.Set(ctx, key, "cached", 0)
	value, found := c.Get(ctx, key)
	assert.True(t, found)
	assert.Equal(t, "cached", value)

	c.Set(ctx, GenerateKey(PrefixPrice, "price_seasonal"), "other", time.Minute)
	c.Set(ctx, "unrelated", "kept", time.Minute)
	c.DeleteByPrefix(ctx, PrefixPrice)

	_, found = c.Get(ctx, key)
	assert.False(t, found)
	_, found = c.Get(ctx, "unrelated")
	assert.True(t, found)

	c.Delete(ctx, "unrelated")
	_, found = c.Get(ctx, "unrelated")
	assert.False(t, found)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	c.Set(ctx, "short", "value", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, found := c.Get(ctx, "short")
	assert.False(t, found)
}

func TestInMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "key", "value", time.Minute)
	_, found := c.Get(ctx, "key")
	assert.False(t, found)

	c.Flush(ctx)
}
