package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecentCache holds each user's recent turns in a Redis list so the chat
// handler can hand the gateway a casual context window without a database
// round trip. The durable Store remains the source of truth.
type RecentCache struct {
	client  redis.Cmdable
	maxMsgs int
	ttl     time.Duration
}

// NewRecentCache creates a cache that keeps the last maxMsgs turns per user
// for ttl past the last append.
func NewRecentCache(client redis.Cmdable, maxMsgs int, ttl time.Duration) *RecentCache {
	return &RecentCache{client: client, maxMsgs: maxMsgs, ttl: ttl}
}

func cacheKey(userID string) string {
	return "conv:recent:" + userID
}

// Append pushes a turn onto the user's list and trims to the window size.
func (c *RecentCache) Append(ctx context.Context, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	key := cacheKey(turn.UserID)
	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-c.maxMsgs), -1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Recent returns the last limit turns, oldest first.
func (c *RecentCache) Recent(ctx context.Context, userID string, limit int) ([]Turn, error) {
	key := cacheKey(userID)
	vals, err := c.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(vals))
	for _, v := range vals {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			continue // skip malformed entries
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear drops the user's cached window.
func (c *RecentCache) Clear(ctx context.Context, userID string) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}
