package repository

import (
	"context"
	"errors"
	"time"

	"questionnaire_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// SnapshotCache 以分享令牌为键缓存已序列化的公开问卷快照
type SnapshotCache struct {
	Client *redis.Client
}

func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{Client: client}
}

func snapshotKey(token string) string {
	return util.SnapshotCacheKeyPrefix + token
}

// Get 未命中时返回 (nil, nil)
func (c *SnapshotCache) Get(ctx context.Context, token string) ([]byte, error) {
	data, err := c.Client.Get(ctx, snapshotKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *SnapshotCache) Set(ctx context.Context, token string, data []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, snapshotKey(token), data, ttl).Err()
}

func (c *SnapshotCache) Delete(ctx context.Context, token string) error {
	return c.Client.Del(ctx, snapshotKey(token)).Err()
}
