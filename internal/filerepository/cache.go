package filerepository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const descriptorKeyPrefix = "filedesc:"

// RedisCache keeps StoredFile descriptors in Redis as JSON.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache returns a cache writing entries with the given ttl (one minute if unset).
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, id string) (*StoredFile, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := c.rdb.Get(ctx, descriptorKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f StoredFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *RedisCache) Set(ctx context.Context, f *StoredFile) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, descriptorKeyPrefix+f.ID, raw, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.rdb.Del(ctx, descriptorKeyPrefix+id).Err()
}
