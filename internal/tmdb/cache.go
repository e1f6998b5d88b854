package tmdb

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores TMDB responses in Redis so repeated lookups during a large
// CSV import stay under the TMDB rate limit. Failures are logged and treated
// as misses; the import must never stall on the cache.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(redisAddr string, ttl time.Duration) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: redisAddr}),
		ttl: ttl,
	}
}

func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("tmdb cache: get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("tmdb cache: decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("tmdb cache: set %s: %v", key, err)
	}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
