package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	s := NewRedisStore(client, "NS")
	require.NoError(t, s.PutMany(ctx, map[string]domain.CacheEntry{
		"A": {Lat: 31.2, Lng: 120.6, CachedAt: now},
		"B": {Lat: 31.3, Lng: 120.7, CachedAt: now.Add(-72 * time.Hour)},
	}))

	assert.True(t, mr.Exists("geocache:NS"))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 120.6, got["A"].Lng)
	assert.True(t, got["A"].CachedAt.Equal(now))

	n, err := s.PurgeBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	err := NewRedisStore(client, "NS").PutMany(context.Background(), map[string]domain.CacheEntry{
		"A": {Lat: 1, Lng: 1},
	})
	require.Error(t, err)
}

func TestRedisStoreCorruptField(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.HSet("geocache:NS", "A", "not-json")

	_, err := NewRedisStore(client, "NS").ReadAll(context.Background())
	require.Error(t, err)
}
