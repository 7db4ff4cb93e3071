package localcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/localcache/migrations"
)

// SQLite implements Store on an embedded SQLite database.
type SQLite struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the cache database at path and applies migrations.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache migrations: %w", err)
	}
	// one writer at a time; SQLite serializes anyway
	db.SetMaxOpenConns(1)
	return &SQLite{db: db}, nil
}

// NewSQLite wraps an already migrated database.
func NewSQLite(db *sqlx.DB) *SQLite { return &SQLite{db: db} }

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// Close releases the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Get returns the value stored under (scope, key).
func (s *SQLite) Get(ctx context.Context, scope, key string) ([]byte, error) {
	const q = `SELECT value FROM cache_entries WHERE scope = ? AND key = ?`
	var v []byte
	if err := s.db.GetContext(ctx, &v, q, scope, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("cache get %s/%s: %w", scope, key, err)
	}
	return v, nil
}

// Put upserts the value under (scope, key).
func (s *SQLite) Put(ctx context.Context, scope, key string, value []byte) error {
	const q = `
INSERT INTO cache_entries (scope, key, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, scope, key, value); err != nil {
		return fmt.Errorf("cache put %s/%s: %w", scope, key, err)
	}
	return nil
}

// Delete removes (scope, key). Deleting a missing key is not an error.
func (s *SQLite) Delete(ctx context.Context, scope, key string) error {
	const q = `DELETE FROM cache_entries WHERE scope = ? AND key = ?`
	if _, err := s.db.ExecContext(ctx, q, scope, key); err != nil {
		return fmt.Errorf("cache delete %s/%s: %w", scope, key, err)
	}
	return nil
}

// DeleteScope removes every key of a scope.
func (s *SQLite) DeleteScope(ctx context.Context, scope string) error {
	const q = `DELETE FROM cache_entries WHERE scope = ?`
	if _, err := s.db.ExecContext(ctx, q, scope); err != nil {
		return fmt.Errorf("cache delete scope %s: %w", scope, err)
	}
	return nil
}

// Keys lists the keys stored in a scope, sorted.
func (s *SQLite) Keys(ctx context.Context, scope string) ([]string, error) {
	const q = `SELECT key FROM cache_entries WHERE scope = ? ORDER BY key`
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, q, scope); err != nil {
		return nil, fmt.Errorf("cache keys %s: %w", scope, err)
	}
	return keys, nil
}
