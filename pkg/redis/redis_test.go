package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.Equal(t, "screener", client.Prefix())
	assert.NoError(t, client.Close())
}

func TestLock_Disabled(t *testing.T) {
	lock := NewLock(Disabled(), "scan", time.Minute)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "disabled Redis must never block a run")
	assert.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "screener:lock:scan", lock.Key())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, LastRunKey, map[string]int{"signals": 3}, TTLDaily))

	var result map[string]int
	found, err := cache.Get(ctx, LastRunKey, &result)
	require.NoError(t, err)
	assert.False(t, found, "expected cache miss when Redis disabled")
}

func TestLock_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_HOST")
	if addr == "" {
		t.Skip("REDIS_TEST_HOST not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{Host: addr, Port: "6379", Enabled: true, Prefix: "screener_test"})
	require.NoError(t, err)
	defer client.Close()

	first := NewLock(client, "scan", time.Minute)
	second := NewLock(client, "scan", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be rejected")

	// Release by a non-owner is a no-op
	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx))
}
