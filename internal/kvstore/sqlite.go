package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteBackend stores values in a single-table SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. Transactions start with
// BEGIN IMMEDIATE and wait up to ten seconds for another process's write
// lock, so several processes may share one file.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent saves.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := b.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

const upsertKV = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, upsertKV, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (b *SQLiteBackend) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite update: %w", err)
	}
	defer tx.Rollback()

	var old []byte
	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		old = []byte(value)
	}

	next, err := fn(old)
	if err != nil || next == nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertKV, key, string(next), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
