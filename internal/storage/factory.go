package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pathforge/api/internal/config"
)

// NewBlobStoreFromConfig selects the blob backend, wrapping it in an LRU cache
// when cache entries are configured
func NewBlobStoreFromConfig(ctx context.Context, cfg *config.StorageConfig) (BlobStore, error) {
	var store BlobStore
	switch cfg.Backend {
	case "", "memory":
		store = NewMemoryStore()
	case "s3":
		s3Store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s3Store
	case "minio":
		minioStore, err := NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		store = minioStore
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.CacheEntries > 0 {
		return NewCachedBlobStore(store, cfg.CacheEntries)
	}
	return store, nil
}

// NewIndexStoreFromConfig selects the index backend. The redis backend requires
// a connected client.
func NewIndexStoreFromConfig(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (IndexStore, error) {
	switch cfg.Index.Backend {
	case "", "memory":
		return NewMemoryIndex(), nil
	case "redis":
		return NewRedisIndex(redisClient, cfg.Index.RedisKey)
	case "postgres":
		return NewPostgresIndex(cfg.Index.DSN)
	case "dynamodb":
		return NewDynamoIndex(ctx, cfg.Storage.Region, cfg.Index.Table)
	}
	return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
}
