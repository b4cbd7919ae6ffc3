package recommend

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds a per-user ranked candidate list in Redis for a short window.
// Rankings drift as requests open and close, so the TTL stays small; any
// cache failure falls through to a recompute.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

const DefaultTTL = 30 * time.Second

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(userID string) string {
	return "recommend:" + userID
}

func (c *Cache) Get(ctx context.Context, userID string) ([]Candidate, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("recommend: cache read failed for %s: %v", userID, err)
		}
		return nil, false
	}
	var candidates []Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func (c *Cache) Set(ctx context.Context, userID string, candidates []Candidate) {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("recommend: cache write failed for %s: %v", userID, err)
	}
}

func (c *Cache) Delete(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, cacheKey(userID)).Err()
}
