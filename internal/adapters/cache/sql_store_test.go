package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/db"
)

// Set DISPATCH_TEST_POSTGRES_DSN to run against a real database.
func TestSQLStore(t *testing.T) {
	dsn := os.Getenv("DISPATCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DISPATCH_TEST_POSTGRES_DSN not set")
	}

	conn, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(conn, DialectPostgres))
	require.NoError(t, InitSchema(conn, DialectPostgres))

	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	ns := "TEST_" + uuid.NewString()
	s := NewSQLStore(conn, ns, zerolog.Nop())
	t.Cleanup(func() { _, _ = s.PurgeBefore(context.Background(), now.Add(time.Hour)) })

	require.NoError(t, s.PutMany(ctx, map[string]domain.CacheEntry{
		"A": {Lat: 31.2, Lng: 120.6, CachedAt: now, Level: "门牌号", FormattedAddress: "江苏省苏州市"},
		"B": {Lat: 31.3, Lng: 120.7, CachedAt: now.Add(-72 * time.Hour)},
	}))
	// Upsert keeps one row per key.
	require.NoError(t, s.PutMany(ctx, map[string]domain.CacheEntry{
		"A": {Lat: 31.25, Lng: 120.65, CachedAt: now},
	}))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 31.25, got["A"].Lat)
	assert.True(t, got["A"].CachedAt.Equal(now))

	n, err := s.PurgeBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
