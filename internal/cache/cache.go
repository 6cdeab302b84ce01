package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/stock-chart-service/internal/chart"
)

// ErrMiss is returned when no sequence is cached for a key
var ErrMiss = errors.New("cache: miss")

const keyPrefix = "chart"

// SampleCache stores resampled sample sequences in redis
type SampleCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New wraps a redis client. A zero ttl keeps entries until invalidated.
func New(client redis.UniversalClient, ttl time.Duration) *SampleCache {
	return &SampleCache{client: client, ttl: ttl}
}

// Dial connects to redis and verifies the connection
func Dial(ctx context.Context, addr, password string, db int, ttl time.Duration) (*SampleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return New(client, ttl), nil
}

// Key returns the cache key for a symbol and timeframe
func Key(symbol, timeframe string) string {
	return keyPrefix + ":" + strings.ToUpper(symbol) + ":" + timeframe
}

// GetSequence loads a cached sequence, returning ErrMiss when absent
func (c *SampleCache) GetSequence(ctx context.Context, symbol, timeframe string) (chart.Sequence, error) {
	data, err := c.client.Get(ctx, Key(symbol, timeframe)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chart.Sequence{}, ErrMiss
	}
	if err != nil {
		return chart.Sequence{}, fmt.Errorf("failed to get cached sequence: %w", err)
	}

	var seq chart.Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return chart.Sequence{}, fmt.Errorf("failed to decode cached sequence: %w", err)
	}
	return seq, nil
}

// SetSequence stores a sequence under its symbol and timeframe
func (c *SampleCache) SetSequence(ctx context.Context, seq chart.Sequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("failed to encode sequence: %w", err)
	}
	if err := c.client.Set(ctx, Key(seq.Symbol, seq.Timeframe), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache sequence: %w", err)
	}
	return nil
}

// Invalidate drops every cached timeframe of a symbol and returns how many keys were removed
func (c *SampleCache) Invalidate(ctx context.Context, symbol string) (int, error) {
	pattern := keyPrefix + ":" + strings.ToUpper(symbol) + ":*"

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate %s: %w", symbol, err)
	}
	return int(n), nil
}

// Ping checks the redis connection
func (c *SampleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *SampleCache) Close() error {
	return c.client.Close()
}
