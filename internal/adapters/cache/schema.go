package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Initialize the geocode cache schema for the given SQL dialect.
func InitSchema(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialect {
	case DialectSQLite:
		statements = []string{`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			namespace TEXT NOT NULL,
			address TEXT NOT NULL,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			level TEXT NOT NULL DEFAULT '',
			formatted_address TEXT NOT NULL DEFAULT '',
			cached_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, address)
		);
		`, `
		CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at
		ON geocode_cache(namespace, cached_at);
		`}
	case DialectPostgres:
		statements = []string{`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			namespace TEXT NOT NULL,
			address TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			level TEXT NOT NULL DEFAULT '',
			formatted_address TEXT NOT NULL DEFAULT '',
			cached_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (namespace, address)
		);
		`, `
		CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at
		ON geocode_cache(namespace, cached_at);
		`}
	default:
		return fmt.Errorf("init schema: unsupported dialect %q", dialect)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
