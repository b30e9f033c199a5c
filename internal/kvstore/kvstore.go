// Package kvstore defines the key-value substrate the contract state lives in.
//
// Every operation of the rental contract runs inside a single Update call:
// the backend serializes updates and either commits all writes made through
// the Tx or none of them.
package kvstore

import (
	"context"
	"errors"
)

var (
	ErrReadOnly = errors.New("kvstore: write in read-only transaction")
	ErrClosed   = errors.New("kvstore: store is closed")
)

// Tx is a view of the store scoped to one transaction.
type Tx interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Store interface {
	// View runs fn with a read-only transaction. A backend may run fn more
	// than once, so fn must only collect its result.
	View(ctx context.Context, fn func(tx Tx) error) error
	// Update runs fn with a read-write transaction. Writes are committed
	// only if fn returns nil.
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// ReadFunc reads a committed value from a backend.
type ReadFunc func(ctx context.Context, key string) ([]byte, bool, error)
