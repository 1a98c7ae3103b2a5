package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe: every connectivity error behaves
// like a miss, so the directory keeps serving straight from the database when
// redis is down. A nil *Client is a valid, permanently empty cache.
type Client struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis-backed cache. An empty addr disables caching and
// returns nil.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	return NewWithRedis(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewWithRedis wraps an existing redis client.
func NewWithRedis(rdb *redis.Client) *Client {
	return &Client{client: rdb, prefix: "web3nav:"}
}

// Enabled reports whether a redis server is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes the cached value for key into dst. It reports false on a
// miss, an unreachable server or a value that no longer decodes.
func (c *Client) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// redis.Nil and connection errors are both misses
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON stores value as JSON with the given TTL, ignoring redis errors.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	_ = c.client.Del(ctx, full...).Err()
}

// Ping checks connectivity. A disabled cache is always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
