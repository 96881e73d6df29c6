// Package cache keeps provider responses in Redis so repeated runs on the same
// trading day do not hit the data provider again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"StockSeeker/internal/model"
)

const (
	keyPrefix  = "seeker:series:"
	DefaultTTL = 12 * time.Hour
)

// Config holds connection parameters for the Redis client.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SeriesCache implements collector.SeriesCache on a Redis string per request key.
type SeriesCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*SeriesCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(rdb, cfg.TTL), nil
}

// NewWithClient wraps an existing client. ttl <= 0 uses DefaultTTL.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SeriesCache{rdb: rdb, ttl: ttl}
}

func seriesKey(key string) string { return keyPrefix + key }

// Get returns the cached bars for key. A missing key is reported as ok=false.
func (c *SeriesCache) Get(ctx context.Context, key string) ([]model.OHLCV, bool, error) {
	data, err := c.rdb.Get(ctx, seriesKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	bars, err := decodeBars(data)
	if err != nil {
		return nil, false, fmt.Errorf("redis: unmarshal %s: %w", key, err)
	}
	return bars, true, nil
}

// Set stores bars under key with the configured TTL.
func (c *SeriesCache) Set(ctx context.Context, key string, bars []model.OHLCV) error {
	data, err := encodeBars(bars)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, seriesKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *SeriesCache) Close() error {
	return c.rdb.Close()
}

func encodeBars(bars []model.OHLCV) ([]byte, error) {
	return json.Marshal(bars)
}

func decodeBars(data []byte) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}
