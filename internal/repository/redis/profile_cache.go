package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linernotes/linernotes/internal/domain"
)

const keyPrefix = "linernotes:profile:"

// ProfileCache stores resolved public profiles in Redis as JSON values.
type ProfileCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewProfileCache creates a new Redis-backed profile cache.
func NewProfileCache(client redis.UniversalClient, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		ttl:    ttl,
	}
}

// GetMany looks up all ids with a single MGET. It returns the cached profiles
// and the ids that were not cached, preserving input order for the misses.
func (c *ProfileCache) GetMany(ctx context.Context, ids []string) (map[string]domain.Profile, []string, error) {
	hits := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return hits, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis mget profiles: %w", err)
	}

	var misses []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = p
	}

	return hits, misses, nil
}

// SetMany caches the profiles with the configured TTL in one pipeline.
func (c *ProfileCache) SetMany(ctx context.Context, profiles map[string]domain.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		pipe.Set(ctx, keyPrefix+id, data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set profiles: %w", err)
	}

	return nil
}

// Invalidate drops a cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del profile: %w", err)
	}
	return nil
}
