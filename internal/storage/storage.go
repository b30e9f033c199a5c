// Package storage opens the key-value backend selected in configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentacar-ledger/internal/config"
	"rentacar-ledger/internal/kvstore"
	"rentacar-ledger/internal/kvstore/memory"
	"rentacar-ledger/internal/kvstore/postgres"
	kvredis "rentacar-ledger/internal/kvstore/redis"
	"rentacar-ledger/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Backend is an open store together with the connection behind it.
type Backend struct {
	kvstore.Store
	Type  string
	close func() error
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the configured backend. For PostgreSQL the kv_entries
// table is created if missing.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	ns := cfg.Store.Namespace
	switch cfg.Store.Type {
	case config.StoreMemory, "":
		logger.Warn("Using in-memory store; contract state is lost on restart")
		return &Backend{Store: memory.New(), Type: config.StoreMemory}, nil

	case config.StorePostgres:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		b, err := fromDB(ctx, db, ns)
		if err != nil {
			db.Close()
			return nil, err
		}
		return b, nil

	case config.StoreRedis:
		logger.Info("Connecting to redis...", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("Redis connection established")
		return fromRedis(client, ns, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second), nil
	}
	return nil, fmt.Errorf("unknown store type: %q", cfg.Store.Type)
}

func fromDB(ctx context.Context, db *sql.DB, namespace string) (*Backend, error) {
	store := postgres.NewStore(db, namespace)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return &Backend{Store: store, Type: config.StorePostgres, close: db.Close}, nil
}

func fromRedis(client redis.UniversalClient, namespace string, lockTTL time.Duration) *Backend {
	store := kvredis.NewStore(client, kvredis.Options{Namespace: namespace, LockTTL: lockTTL})
	return &Backend{Store: store, Type: config.StoreRedis, close: client.Close}
}
