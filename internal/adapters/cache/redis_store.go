package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// RedisStore keeps every entry of a namespace in one Redis hash:
// field = normalized address, value = JSON encoded entry.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
}

func NewRedisStore(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key() string { return "geocache:" + s.namespace }

func (s *RedisStore) ReadAll(ctx context.Context) (map[string]domain.CacheEntry, error) {
	raw, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis cache %q: %w", s.key(), err)
	}

	out := make(map[string]domain.CacheEntry, len(raw))
	for addr, v := range raw {
		var e domain.CacheEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("read redis cache: decode field %q: %w", addr, err)
		}
		out[addr] = e
	}
	return out, nil
}

func (s *RedisStore) PutMany(ctx context.Context, entries map[string]domain.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]any, 0, 2*len(entries))
	for addr, e := range entries {
		if addr == "" {
			return errors.New("write redis cache: empty address key")
		}
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("write redis cache: encode %q: %w", addr, err)
		}
		values = append(values, addr, string(b))
	}

	if err := s.client.HSet(ctx, s.key(), values...).Err(); err != nil {
		return fmt.Errorf("write redis cache %q: %w", s.key(), err)
	}
	return nil
}

func (s *RedisStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	all, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	stale := make([]string, 0)
	for addr, e := range all {
		if e.CachedAt.Before(cutoff) {
			stale = append(stale, addr)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := s.client.HDel(ctx, s.key(), stale...).Result()
	if err != nil {
		return 0, fmt.Errorf("purge redis cache %q: %w", s.key(), err)
	}
	return int(n), nil
}
