package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"warungkas/backend/internal/domain"
)

const (
	snapshotKeyPrefix = "warungkas:snapshot:"
	versionKeyPrefix  = "warungkas:snapshot-version:"
)

type RedisSnapshotCache struct {
	client redis.UniversalClient
}

func NewRedisSnapshotCache(addr string, password string, db int) *RedisSnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSnapshotCache{client: client}
}

// NewRedisSnapshotCacheWithClient wraps an existing client, e.g. a cluster
// client or one pointed at a test server.
func NewRedisSnapshotCacheWithClient(client redis.UniversalClient) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

func (c *RedisSnapshotCache) Version(ctx context.Context, storeID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(storeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (c *RedisSnapshotCache) Get(ctx context.Context, storeID string, version int64) (*domain.StoreSnapshot, bool, error) {
	val, err := c.client.Get(ctx, snapshotKey(storeID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap domain.StoreSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, storeID string, version int64, value *domain.StoreSnapshot, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(storeID, version), payload, ttl).Err()
}

// Invalidate bumps the store's version. The superseded entry is left to
// expire with its TTL.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, storeID string) error {
	return c.client.Incr(ctx, versionKey(storeID)).Err()
}

func snapshotKey(storeID string, version int64) string {
	return snapshotKeyPrefix + storeID + ":" + strconv.FormatInt(version, 10)
}

func versionKey(storeID string) string {
	return versionKeyPrefix + storeID
}
