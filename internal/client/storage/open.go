package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/communityhub/internal/client/config"
	"github.com/dmitrijs2005/communityhub/internal/filex"
	"github.com/redis/go-redis/v9"
)

// Backend is a KV that owns resources which must be released on shutdown.
type Backend interface {
	KV
	io.Closer
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if err := filex.EnsureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		db, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteKV(db), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisKV(client, cfg.RedisPrefix), nil

	case config.BackendMemory:
		return NewMemoryKV(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
