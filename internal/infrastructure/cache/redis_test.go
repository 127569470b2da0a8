package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/config"
)

func TestNewRedisCache_Success(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), DB: 0, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.NotNil(t, cache.Client())

	assert.NoError(t, cache.Close())
}

func TestNewRedisCache_WithPassword(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	s.RequireAuth("secret")

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), Password: "secret", DB: 0, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.NoError(t, cache.Close())
}

func TestNewRedisCache_WithDB(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), DB: 1, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.NoError(t, cache.Close())
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	cfg := config.RedisConfig{URL: "invalid://url", DB: 0, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestNewRedisCache_ConnectionFailure(t *testing.T) {
	cfg := config.RedisConfig{URL: "redis://localhost:9999", DB: 0, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	assert.Error(t, err)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisCache_Client_IsFunctional(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	client := cache.Client()
	assert.NotNil(t, client)
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestRedisCache_Health_Success(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	assert.NoError(t, cache.Health(context.Background()))
}

func TestRedisCache_Health_AfterClose(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	require.NoError(t, cache.Close())

	assert.Error(t, cache.Health(context.Background()))
}

// TestRedisCache_Client_SetGetRoundTrip checks that the raw *Client the
// wrapper hands out reaches the miniredis instance: a key written through
// Client() reads back through Client().
func TestRedisCache_Client_SetGetRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Client().Set(ctx, "ingest:probe", "1", 0).Err())

	got, err := cache.Client().Get(ctx, "ingest:probe").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestRedisCache_Stats_Success(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()
	cache := setupCache(t, s)
	defer cache.Close()

	stats := cache.Stats()
	assert.NotNil(t, stats)
	assert.IsType(t, &CacheStats{}, stats)
}

func setupCache(t *testing.T, s *miniredis.Miniredis) *RedisCache {
	cfg := config.RedisConfig{URL: "redis://" + s.Addr(), DB: 0, PoolSize: 10}

	cache, err := NewRedisCache(cfg)
	require.NoError(t, err)
	return cache
}
