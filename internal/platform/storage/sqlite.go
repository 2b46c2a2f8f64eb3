package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const createKVTable = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite persists values in a single-table SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("platform/storage: sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("platform/storage: create sqlite dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/storage: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("platform/storage: ping sqlite: %w", err)
	}
	if _, err := db.Exec(createKVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("platform/storage: migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// GetMany implements Storage.
func (s *SQLite) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	query := "SELECT key, value FROM kv WHERE key IN (" + placeholders(len(keys)) + ")"
	rows, err := s.db.QueryContext(ctx, query, toArgs(keys)...)
	if err != nil {
		return nil, fmt.Errorf("platform/storage: sqlite select: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("platform/storage: sqlite scan: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("platform/storage: sqlite rows: %w", err)
	}
	return out, nil
}

const upsertKV = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SetMany implements Storage in one transaction.
func (s *SQLite) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.write(ctx, "", "", values)
	return err
}

// SetManyIf implements Storage. The guard check is the transaction's first
// statement and an UPDATE, so it takes the write lock before anything is read.
func (s *SQLite) SetManyIf(ctx context.Context, guardKey, expected string, values map[string]string) (bool, error) {
	return s.write(ctx, guardKey, expected, values)
}

func (s *SQLite) write(ctx context.Context, guardKey, expected string, values map[string]string) (written bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("platform/storage: sqlite begin: %w", err)
	}
	defer func() {
		if err != nil || !written {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(timeFormat)
	if guardKey != "" {
		res, err := tx.ExecContext(ctx, "UPDATE kv SET updated_at = ? WHERE key = ? AND value = ?", now, guardKey, expected)
		if err != nil {
			return false, fmt.Errorf("platform/storage: sqlite guard %s: %w", guardKey, err)
		}
		matched, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("platform/storage: sqlite guard %s: %w", guardKey, err)
		}
		if matched == 0 {
			return false, nil
		}
	}
	for k, v := range values {
		if _, err = tx.ExecContext(ctx, upsertKV, k, v, now); err != nil {
			return false, fmt.Errorf("platform/storage: sqlite upsert %s: %w", k, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("platform/storage: sqlite commit: %w", err)
	}
	return true, nil
}

// Delete implements Storage.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := "DELETE FROM kv WHERE key IN (" + placeholders(len(keys)) + ")"
	if _, err := s.db.ExecContext(ctx, query, toArgs(keys)...); err != nil {
		return fmt.Errorf("platform/storage: sqlite delete: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

var _ Storage = (*SQLite)(nil)
