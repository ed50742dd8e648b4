// Package cache holds the Redis-backed unread-notification counter.  The
// navbar badge is fetched on nearly every page load, so the count is the
// one read in this application worth caching.  The counter degrades to
// plain database reads when Redis is unavailable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCounter caches per-user unread notification counts.  A nil
// client disables the cache entirely; every method becomes a no-op miss.
type UnreadCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUnreadCounter wraps a Redis client.  rdb may be nil.
func NewUnreadCounter(rdb *redis.Client) *UnreadCounter {
	return &UnreadCounter{rdb: rdb, ttl: 5 * time.Minute}
}

func (c *UnreadCounter) key(userID uint64) string {
	return fmt.Sprintf("unread:%d", userID)
}

// Get returns the cached count and whether it was present.
func (c *UnreadCounter) Get(ctx context.Context, userID uint64) (int64, bool) {
	if c.rdb == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, c.key(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores the count with the counter's TTL.  Errors are ignored; the
// cache is advisory.
func (c *UnreadCounter) Set(ctx context.Context, userID uint64, n int64) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(userID), n, c.ttl).Err()
}

// Invalidate drops the cached count for every listed user.  Called after
// notifications are created or marked read.
func (c *UnreadCounter) Invalidate(ctx context.Context, userIDs ...uint64) {
	if c.rdb == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.key(id))
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
