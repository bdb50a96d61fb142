package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sqlc-dev/pqtype"
)

// PostgresBackend stores values in the kv_state table as jsonb, one row per
// (namespace, key). The schema is created by the goose migrations.
type PostgresBackend struct {
	db        *sql.DB
	namespace string
}

// NewPostgresBackend wraps an open database handle.
func NewPostgresBackend(db *sql.DB, namespace string) *PostgresBackend {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresBackend{db: db, namespace: namespace}
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value pqtype.NullRawMessage
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv_state WHERE namespace = $1 AND key = $2`,
		b.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select kv_state: %w", err)
	}
	if !value.Valid {
		return nil, ErrNotFound
	}
	return value.RawMessage, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("kv_state %s: value is not valid JSON", key)
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv_state (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		b.namespace, key, pqtype.NullRawMessage{RawMessage: value, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("upsert kv_state: %w", err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE. A missing row is first
// inserted with a null value so there is always a row to lock.
func (b *PostgresBackend) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin kv_state update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv_state (namespace, key, value, updated_at)
		 VALUES ($1, $2, NULL, now())
		 ON CONFLICT (namespace, key) DO NOTHING`,
		b.namespace, key,
	); err != nil {
		return fmt.Errorf("reserve kv_state: %w", err)
	}

	var value pqtype.NullRawMessage
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM kv_state WHERE namespace = $1 AND key = $2 FOR UPDATE`,
		b.namespace, key,
	).Scan(&value); err != nil {
		return fmt.Errorf("lock kv_state: %w", err)
	}

	var old []byte
	if value.Valid {
		old = value.RawMessage
	}
	next, err := fn(old)
	if err != nil || next == nil {
		return err
	}
	if !json.Valid(next) {
		return fmt.Errorf("kv_state %s: value is not valid JSON", key)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE kv_state SET value = $3, updated_at = now() WHERE namespace = $1 AND key = $2`,
		b.namespace, key, pqtype.NullRawMessage{RawMessage: next, Valid: true},
	); err != nil {
		return fmt.Errorf("update kv_state: %w", err)
	}
	return tx.Commit()
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM kv_state WHERE namespace = $1 AND key = $2`,
		b.namespace, key,
	)
	return err
}

// Close closes the database handle.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
