package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/cache"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/api/dto"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSolveCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISPATCH_CACHE__BACKEND", "file")
	t.Setenv("DISPATCH_CACHE__PATH", filepath.Join(dir, "cache.json"))

	orders := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(orders, []byte(`[
		{"orderNo":"SO-1","receiver":"张三","address":"苏州市星湖街328号","weightKg":500,"pallets":1},
		{"orderNo":"SO-2","receiver":"李四","address":"苏州市金鸡湖大道1号","weightKg":700,"pallets":2}
	]`), 0o600))

	out, err := execute(t, "solve", "--orders", orders, "--offline", "--date", "2026-05-04")
	require.NoError(t, err)

	var plan dto.PlanResponse
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Summary.TotalOrders)
	assert.Equal(t, 1, plan.Summary.TotalTrips)
	assert.Equal(t, []string{"SO-1", "SO-2"}, plan.Summary.RiskOrders)
}

func TestCachePurgeCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	t.Setenv("DISPATCH_CACHE__BACKEND", "file")
	t.Setenv("DISPATCH_CACHE__PATH", path)
	t.Setenv("DISPATCH_CACHE__TTL", "24h")

	store := cache.NewFileStore(path, "NANO_LOGISTICS_GEO_CACHE_V5_STABLE")
	require.NoError(t, store.PutMany(t.Context(), map[string]domain.CacheEntry{
		"OLD": {Lat: 31, Lng: 121, CachedAt: time.Now().Add(-48 * time.Hour)},
		"NEW": {Lat: 31, Lng: 121, CachedAt: time.Now()},
	}))

	out, err := execute(t, "cache", "purge")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "purged 1 entries"), out)
}

func TestCacheInitCommand(t *testing.T) {
	t.Setenv("DISPATCH_CACHE__BACKEND", "sqlite")
	t.Setenv("DISPATCH_CACHE__PATH", filepath.Join(t.TempDir(), "cache.db"))

	out, err := execute(t, "cache", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready (sqlite)")
}
