package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// CacheRepository stores JSON snapshots in Redis with explicit TTLs.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs a CacheRepository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

func wrapInternal(err error) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}

// Get unmarshals the cached value under key into dest. A missing key and a
// payload that no longer decodes are both reported as ErrCacheMiss; stale or
// corrupt snapshots must never shadow the authoritative tables.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return wrapInternal(err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set marshals value and stores it under key for the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return wrapInternal(err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return wrapInternal(err)
	}
	return nil
}

// Delete removes the given keys.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return wrapInternal(err)
	}
	return nil
}

// DeleteByPattern removes every key matching pattern using SCAN.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return wrapInternal(err)
	}
	return r.Delete(ctx, keys...)
}
