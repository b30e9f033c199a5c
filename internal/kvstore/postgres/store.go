// Package postgres stores contract state in a single PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/logger"

	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_on TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Store keeps every key of one namespace in kv_entries. Updates take a
// transaction-scoped advisory lock derived from the namespace, which
// serializes contract operations across processes sharing the database.
type Store struct {
	db        *sql.DB
	namespace string
	lockID    int64
}

func NewStore(db *sql.DB, namespace string) *Store {
	h := fnv.New64a()
	_, _ = h.Write([]byte("rentacar:" + namespace))
	return &Store{
		db:        db,
		namespace: namespace,
		lockID:    int64(h.Sum64()),
	}
}

// Migrate creates the backing table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("migrate", schema)
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	if err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

// View reads from one snapshot. The shared advisory lock waits out an
// update that is mid-flight, and repeatable read keeps every statement of fn
// on the snapshot taken after it.
func (s *Store) View(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, s.lockID); err != nil {
		return fmt.Errorf("acquire shared advisory lock: %w", err)
	}

	if err := fn(kvstore.ReadOnly((&pgTx{sqlTx: sqlTx, namespace: s.namespace}).Get)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) Update(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, s.lockID); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	if err := fn(&pgTx{sqlTx: sqlTx, namespace: s.namespace}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type pgTx struct {
	sqlTx     *sql.Tx
	namespace string
}

func (t *pgTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`
	logger.DatabaseCall("get", query, "key", key)

	var value []byte
	err := t.sqlTx.QueryRowContext(ctx, query, t.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("get", 0, nil, "key", key)
		return nil, false, nil
	}
	logger.DatabaseResult("get", 1, err, "key", key)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (t *pgTx) Has(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM kv_entries WHERE namespace = $1 AND key = $2)`
	logger.DatabaseCall("has", query, "key", key)

	var exists bool
	err := t.sqlTx.QueryRowContext(ctx, query, t.namespace, key).Scan(&exists)
	logger.DatabaseResult("has", 1, err, "key", key)
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}
	return exists, nil
}

func (t *pgTx) Set(ctx context.Context, key string, value []byte) error {
	query := `INSERT INTO kv_entries (namespace, key, value, updated_on) VALUES ($1, $2, $3, now())
	          ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_on = now()`
	logger.DatabaseCall("set", query, "key", key)

	res, err := t.sqlTx.ExecContext(ctx, query, t.namespace, key, value)
	logger.DatabaseResult("set", rowsAffected(res), err, "key", key)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`
	logger.DatabaseCall("delete", query, "key", key)

	res, err := t.sqlTx.ExecContext(ctx, query, t.namespace, key)
	logger.DatabaseResult("delete", rowsAffected(res), err, "key", key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
