package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pathforge/api/internal/model"
)

// RedisIndex stores index records as JSON values in a single hash keyed by job ID
type RedisIndex struct {
	redis *redis.Client
	key   string
}

func NewRedisIndex(redisClient *redis.Client, key string) (*RedisIndex, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return nil, fmt.Errorf("redis index key is required")
	}
	return &RedisIndex{redis: redisClient, key: key}, nil
}

func (r *RedisIndex) Put(ctx context.Context, rec model.IndexRecord) error {
	if err := checkKey(rec.JobID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal index record: %w", err)
	}
	if err := r.redis.HSetNX(ctx, r.key, rec.JobID, data).Err(); err != nil {
		return fmt.Errorf("failed to write index record: %w", err)
	}
	return nil
}

// List returns every decodable record. Corrupt entries are skipped.
func (r *RedisIndex) List(ctx context.Context) ([]model.IndexRecord, error) {
	values, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w", err)
	}
	out := make([]model.IndexRecord, 0, len(values))
	for _, raw := range values {
		var rec model.IndexRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
