// Package cache provides a best-effort TTL cache over Redis. A nil *Cache is
// valid and degrades every operation to a no-op or absent result, so callers
// can treat caching as an optional dependency.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// entry is the stored envelope. Age beyond TTLSeconds means the entry is
// treated as absent and lazily deleted, independent of the Redis key expiry.
type entry struct {
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"` // epoch milliseconds
	TTLSeconds int             `json:"ttl"`
}

// Cache wraps a Redis client. All operations are best-effort: any Redis
// failure is logged and reported as a miss or swallowed.
type Cache struct {
	rdb *redis.Client
	log zerolog.Logger
	now func() time.Time
}

// New connects to addr. An empty addr returns nil, which disables caching.
func New(addr string, log zerolog.Logger) *Cache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Cache{rdb: rdb, log: log, now: time.Now}
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(rdb *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, log: log, now: time.Now}
}

// SetClock overrides the time source; used by tests to expire entries.
func (c *Cache) SetClock(now func() time.Time) {
	if c != nil {
		c.now = now
	}
}

func (c *Cache) expired(e *entry) bool {
	age := c.now().UnixMilli() - e.Timestamp
	return age > int64(e.TTLSeconds)*1000
}

// Get unmarshals the cached value under key into dest and reports whether a
// valid (non-expired) entry was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	if c.expired(&e) {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache value unmarshal failed")
		return false
	}
	return true
}

// Set stores value under key with the given TTL, overwriting unconditionally.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache value marshal failed")
		return
	}
	e := entry{Data: data, Timestamp: c.now().UnixMilli(), TTLSeconds: int(ttl.Seconds())}
	raw, err := json.Marshal(&e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete removes key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

// Exists reports whether a valid entry is present under key.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	if c == nil {
		return false
	}
	var ignored json.RawMessage
	return c.Get(ctx, key, &ignored)
}

// MGet fetches several keys at once. The result maps each found key to its
// raw value; expired or missing keys are omitted.
func (c *Cache) MGet(ctx context.Context, keys ...string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	if c == nil || len(keys) == 0 {
		return out
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("cache mget failed")
		return out
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			continue
		}
		if c.expired(&e) {
			_ = c.rdb.Del(ctx, keys[i]).Err()
			continue
		}
		out[keys[i]] = e.Data
	}
	return out
}

// MSet stores several values with one TTL, with the same semantics as Set.
func (c *Cache) MSet(ctx context.Context, values map[string]interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	for k, v := range values {
		c.Set(ctx, k, v, ttl)
	}
}

// HealthPing implements health.HealthPinger. A nil cache is healthy by
// definition since caching is disabled.
func (c *Cache) HealthPing(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
