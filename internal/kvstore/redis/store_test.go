package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"rentacar-ledger/internal/kvstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewStore(client, Options{Namespace: "test", RetryInterval: time.Millisecond})
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(redis.NewClient(&redis.Options{Addr: "localhost:0"}), Options{})
	defer s.Close()

	assert.Equal(t, "rentacar:default:", s.prefix)
	assert.Equal(t, "rentacar:default:__lock__", s.lockKey)
	assert.Equal(t, "rentacar:default:__version__", s.versionKey)
	assert.Equal(t, defaultLockTTL, s.lockTTL)
	assert.Equal(t, "rentacar:default:car", s.key("car"))
}

func TestStore_UpdateAndView(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	err := s.Update(ctx, func(tx kvstore.Tx) error {
		if err := tx.Set(ctx, "admin", []byte("GADMIN")); err != nil {
			return err
		}
		v, ok, err := tx.Get(ctx, "admin")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "GADMIN", string(v))
		return nil
	})
	require.NoError(t, err)

	stored, err := mr.Get("rentacar:test:admin")
	require.NoError(t, err)
	assert.Equal(t, "GADMIN", stored)
	assert.False(t, mr.Exists(s.lockKey))

	err = s.View(ctx, func(tx kvstore.Tx) error {
		ok, err := tx.Has(ctx, "admin")
		require.NoError(t, err)
		assert.True(t, ok)
		return tx.Set(ctx, "admin", []byte("x"))
	})
	assert.ErrorIs(t, err, kvstore.ErrReadOnly)
}

func TestStore_UpdateDeletes(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("rentacar:test:rental", "x"))

	require.NoError(t, s.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Delete(ctx, "rental")
	}))
	assert.False(t, mr.Exists("rentacar:test:rental"))
}

func TestStore_UpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx kvstore.Tx) error {
		_ = tx.Set(ctx, "balance", []byte("1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mr.Keys())
}

func TestStore_UpdatesAreSerialized(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, _ := newTestStore(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, func(tx kvstore.Tx) error {
				v, _, err := tx.Get(ctx, "counter")
				if err != nil {
					return err
				}
				n, _ := strconv.Atoi(string(v))
				return tx.Set(ctx, "counter", []byte(strconv.Itoa(n+1)))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	err := s.View(ctx, func(tx kvstore.Tx) error {
		v, ok, err := tx.Get(ctx, "counter")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, strconv.Itoa(workers), string(v))
		return nil
	})
	assert.NoError(t, err)

	version, err := s.version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), version)
}

func TestStore_LockExpiredBeforeCommit(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	err := s.Update(ctx, func(tx kvstore.Tx) error {
		require.NoError(t, tx.Set(ctx, "car", []byte("x")))
		mr.FastForward(s.lockTTL + time.Second)
		return nil
	})
	assert.ErrorIs(t, err, ErrLockLost)
	assert.False(t, mr.Exists("rentacar:test:car"))
	assert.False(t, mr.Exists(s.versionKey))
}

func TestStore_LockTakenByAnotherHolder(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(s.lockKey, "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	t.Run("Update waits", func(t *testing.T) {
		err := s.Update(ctx, func(tx kvstore.Tx) error { return nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("View does not wait", func(t *testing.T) {
		require.NoError(t, mr.Set("rentacar:test:admin", "GADMIN"))
		err := s.View(context.Background(), func(tx kvstore.Tx) error {
			v, ok, err := tx.Get(context.Background(), "admin")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "GADMIN", string(v))
			return nil
		})
		assert.NoError(t, err)

		owner, err := mr.Get(s.lockKey)
		require.NoError(t, err)
		assert.Equal(t, "someone-else", owner)
	})
}

func TestStore_ViewRetriesAfterConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Set(ctx, "balance", []byte("1"))
	}))

	calls := 0
	var seen string
	err := s.View(ctx, func(tx kvstore.Tx) error {
		calls++
		v, _, err := tx.Get(ctx, "balance")
		if err != nil {
			return err
		}
		seen = string(v)
		if calls == 1 {
			return s.Update(ctx, func(tx kvstore.Tx) error {
				return tx.Set(ctx, "balance", []byte("2"))
			})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "2", seen)
}

func TestStore_ViewFallsBackToLock(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	calls := 0
	err := s.View(ctx, func(tx kvstore.Tx) error {
		calls++
		if calls <= optimisticViews {
			mr.Incr(s.versionKey, 1)
			return nil
		}
		owner, err := mr.Get(s.lockKey)
		require.NoError(t, err)
		assert.NotEmpty(t, owner)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, optimisticViews+1, calls)
	assert.False(t, mr.Exists(s.lockKey))
}
