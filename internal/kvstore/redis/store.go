// Package redis stores contract state in Redis.
//
// Redis has no interactive transactions, so Update serializes callers with a
// lock key (SET NX PX), stages writes in a kvstore.Batch and commits them in
// one MULTI/EXEC that is discarded if the lock changed hands meanwhile. Every
// commit also bumps a version key, which lets View read without the lock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockLost is returned when the update lock expired before commit. No
// writes of that update were applied.
var ErrLockLost = errors.New("redis kvstore: lock lost before commit")

const (
	defaultLockTTL       = 10 * time.Second
	defaultRetryInterval = 20 * time.Millisecond

	// optimisticViews is how many lock-free attempts View makes before it
	// takes the update lock.
	optimisticViews = 3
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Options struct {
	Namespace     string
	LockTTL       time.Duration
	RetryInterval time.Duration
}

type Store struct {
	client        redis.UniversalClient
	prefix        string
	lockKey       string
	versionKey    string
	lockTTL       time.Duration
	retryInterval time.Duration
}

func NewStore(client redis.UniversalClient, opts Options) *Store {
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	prefix := "rentacar:" + opts.Namespace + ":"
	return &Store{
		client:        client,
		prefix:        prefix,
		lockKey:       prefix + "__lock__",
		versionKey:    prefix + "__version__",
		lockTTL:       opts.LockTTL,
		retryInterval: opts.RetryInterval,
	}
}

// View reads without the update lock. The commit version is read before and
// after fn; if a commit landed in between, fn runs again. After
// optimisticViews conflicts View waits for the lock so that busy writers
// cannot starve readers.
func (s *Store) View(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	for i := 0; i < optimisticViews; i++ {
		before, err := s.version(ctx)
		if err != nil {
			return err
		}
		fnErr := fn(kvstore.ReadOnly(s.read))
		after, err := s.version(ctx)
		if err != nil {
			return err
		}
		if before == after {
			return fnErr
		}
	}

	token, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.release(token)

	return fn(kvstore.ReadOnly(s.read))
}

func (s *Store) Update(ctx context.Context, fn func(tx kvstore.Tx) error) error {
	token, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer s.release(token)

	batch := kvstore.NewBatch(s.read)
	if err := fn(batch); err != nil {
		return err
	}

	muts := batch.Mutations()
	if len(muts) == 0 {
		return nil
	}
	return s.commit(ctx, token, muts)
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) version(ctx context.Context) (int64, error) {
	v, err := s.client.Get(ctx, s.versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

func (s *Store) commit(ctx context.Context, token string, muts []kvstore.Mutation) error {
	logger.DatabaseCall("redis.commit", "MULTI/EXEC", "mutations", len(muts))

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, s.lockKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != token {
			return ErrLockLost
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, m := range muts {
				if m.Deleted {
					pipe.Del(ctx, s.key(m.Key))
					continue
				}
				pipe.Set(ctx, s.key(m.Key), m.Value, 0)
			}
			pipe.Incr(ctx, s.versionKey)
			return nil
		})
		return err
	}, s.lockKey)

	if errors.Is(err, redis.TxFailedErr) {
		err = ErrLockLost
	}
	logger.DatabaseResult("redis.commit", int64(len(muts)), err)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(ctx, s.lockKey, token, s.lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Store) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, s.client, []string{s.lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("Failed to release redis lock", "key", s.lockKey, "error", err)
	}
}
