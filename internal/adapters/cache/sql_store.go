package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

// SQLStore is a Postgres-backed geocode cache store (pgx stdlib driver).
type SQLStore struct {
	DB        *sql.DB
	Namespace string
	Log       zerolog.Logger
}

func NewSQLStore(db *sql.DB, namespace string, log zerolog.Logger) *SQLStore {
	return &SQLStore{DB: db, Namespace: namespace, Log: log}
}

// Fetch every cached coordinate in the namespace.
func (s *SQLStore) ReadAll(ctx context.Context) (_ map[string]domain.CacheEntry, err error) {
	defer obs.Time(ctx, s.Log, "geocode.cache.ReadAll")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	q := `
	SELECT address, lat, lng, level, formatted_address, cached_at
    FROM geocode_cache
    WHERE namespace = $1;
	`

	rows, err := s.DB.QueryContext(ctx, q, s.Namespace)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.CacheEntry)
	for rows.Next() {
		var addr string
		var e domain.CacheEntry
		if err := rows.Scan(&addr, &e.Lat, &e.Lng, &e.Level, &e.FormattedAddress, &e.CachedAt); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (s *SQLStore) PutMany(ctx context.Context, entries map[string]domain.CacheEntry) (err error) {
	defer obs.Time(ctx, s.Log, "geocode.cache.PutMany")(&err)

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
	INSERT INTO geocode_cache (namespace, address, lat, lng, level, formatted_address, cached_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (namespace, address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		level = EXCLUDED.level,
		formatted_address = EXCLUDED.formatted_address,
		cached_at = EXCLUDED.cached_at;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, e := range entries {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, s.Namespace, addr, e.Lat, e.Lng, e.Level, e.FormattedAddress, e.CachedAt); err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

// Delete entries cached before cutoff.
func (s *SQLStore) PurgeBefore(ctx context.Context, cutoff time.Time) (_ int, err error) {
	defer obs.Time(ctx, s.Log, "geocode.cache.PurgeBefore")(&err)

	if s.DB == nil {
		return 0, errors.New("geocode cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM geocode_cache
    WHERE namespace = $1 AND cached_at < $2;
	`, s.Namespace, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: rows affected: %w", err)
	}
	return int(n), nil
}
