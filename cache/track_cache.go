package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trackvault/logger"
	"trackvault/model"

	"github.com/redis/go-redis/v9"
)

const (
	listKeyPrefix = "tracks:list:"
	listTTL       = 60 * time.Second
)

// TrackCache caches list responses in Redis, keyed by the query filter.
// A nil *TrackCache is a valid no-op cache, so callers never have to check
// whether caching is enabled.
type TrackCache struct {
	client *redis.Client
}

// NewTrackCache wraps a Redis client. Returns nil (no-op cache) when the
// client is nil.
func NewTrackCache(client *redis.Client) *TrackCache {
	if client == nil {
		return nil
	}
	return &TrackCache{client: client}
}

// ListKey builds the cache key for a filter combination.
func ListKey(filter model.TrackFilter) string {
	return fmt.Sprintf("%s%s:%s:%d", listKeyPrefix, filter.Tag, filter.Search, filter.Limit)
}

// GetList returns the cached track list for a key, or (nil, false) on miss.
// Cache failures degrade to a miss.
func (c *TrackCache) GetList(ctx context.Context, key string) ([]*model.Track, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Track cache read failed", logger.String("key", key), logger.ErrorField(err))
		}
		return nil, false
	}
	var tracks []*model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		logger.Warn("Track cache entry corrupt, dropping", logger.String("key", key), logger.ErrorField(err))
		c.client.Del(ctx, key)
		return nil, false
	}
	return tracks, true
}

// SetList stores a track list under a key with a short TTL.
func (c *TrackCache) SetList(ctx context.Context, key string, tracks []*model.Track) {
	if c == nil {
		return
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		logger.Warn("Track cache encode failed", logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, key, data, listTTL).Err(); err != nil {
		logger.Warn("Track cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// InvalidateLists drops every cached list. Called after any track mutation.
func (c *TrackCache) InvalidateLists(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, listKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("Track cache scan failed during invalidation", logger.ErrorField(err))
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.Warn("Track cache invalidation failed", logger.ErrorField(err))
		}
	}
}
