// Package memory is an in-process kvstore backend for development and tests.
package memory

import (
	"context"
	"sync"

	"rentacar-ledger/internal/kvstore"
)

type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) View(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return kvstore.ErrClosed
	}
	return fn(kvstore.ReadOnly(s.read))
}

// Update holds the store-wide write lock for the whole of fn, so updates are
// serialized and never observe each other's staged writes.
func (s *Store) Update(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kvstore.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := kvstore.NewBatch(s.read)
	if err := fn(batch); err != nil {
		return err
	}

	for _, m := range batch.Mutations() {
		if m.Deleted {
			delete(s.data, m.Key)
			continue
		}
		s.data[m.Key] = m.Value
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// read must be called with s.mu held.
func (s *Store) read(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}
