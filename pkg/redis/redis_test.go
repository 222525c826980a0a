package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	require.False(t, client.Enabled())
	return client
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := MutationRateLimit("u-1", 5, 10)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))

	won, err := cache.Claim(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestMutationRateLimit(t *testing.T) {
	cfg := MutationRateLimit("alice", 5, 10)
	assert.Equal(t, "mutations:alice", cfg.Key)
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, time.Second, cfg.Window)

	assert.Equal(t, 3, MutationRateLimit("bob", 3, 0).Limit)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "window:alice", WindowKey("alice"))
	assert.Equal(t, "announced:w-1", AnnouncedKey("w-1"))
	assert.Equal(t, "test:cache:window:alice", NewCache(nil, "test").fullKey(WindowKey("alice")))
}
