package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// SQLite backed geocode cache store. Timestamps are kept as unix milliseconds.
// Address keys are expected to be normalized by the caller.
type SQLiteStore struct {
	DB        *sql.DB
	Namespace string
}

func NewSQLiteStore(db *sql.DB, namespace string) *SQLiteStore {
	return &SQLiteStore{DB: db, Namespace: namespace}
}

// Fetch every cached coordinate in the namespace.
func (s *SQLiteStore) ReadAll(ctx context.Context) (map[string]domain.CacheEntry, error) {
	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	q := `
	SELECT
        address,
        lat,
        lng,
        level,
        formatted_address,
        cached_at
    FROM geocode_cache
    WHERE namespace = ?;
	`

	rows, err := s.DB.QueryContext(ctx, q, s.Namespace)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.CacheEntry)
	for rows.Next() {
		var addr, level, formatted string
		var lat, lng float64
		var cachedAt int64
		if err := rows.Scan(&addr, &lat, &lng, &level, &formatted, &cachedAt); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = domain.CacheEntry{
			Lat:              lat,
			Lng:              lng,
			Level:            level,
			FormattedAddress: formatted,
			CachedAt:         time.UnixMilli(cachedAt).UTC(),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (s *SQLiteStore) PutMany(ctx context.Context, entries map[string]domain.CacheEntry) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (
        namespace,
        address,
        lat,
        lng,
        level,
        formatted_address,
        cached_at
    )
    VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, e := range entries {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, s.Namespace, addr, e.Lat, e.Lng, e.Level, e.FormattedAddress, e.CachedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// Delete entries cached before cutoff.
func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if s.DB == nil {
		return 0, errors.New("geocode cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE namespace = ? AND cached_at < ?;
	`, s.Namespace, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: rows affected: %w", err)
	}
	return int(n), nil
}
