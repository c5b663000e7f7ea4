// Package redisq wraps Redis operations for the pending-recovery queue.
package redisq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the recovery pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

const pendingKey = "voxmend:pending_audio"

// Push adds an audio path to the pending queue. The score is the file's
// modification time so the oldest recording is recovered first.
func (c *Client) Push(ctx context.Context, audioPath string, modTime time.Time) error {
	z := redis.Z{Score: float64(modTime.Unix()), Member: audioPath}
	if err := c.rdb.ZAdd(ctx, pendingKey, z).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// Pop removes and returns the oldest pending audio path.
func (c *Client) Pop(ctx context.Context) (string, bool, error) {
	results, err := c.rdb.ZRangeWithScores(ctx, pendingKey, 0, 0).Result()
	if err != nil {
		return "", false, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return "", false, nil
	}

	member := results[0].Member.(string)
	if err := c.rdb.ZRem(ctx, pendingKey, member).Err(); err != nil {
		return "", false, fmt.Errorf("zrem failed: %w", err)
	}

	return member, true, nil
}

// Len returns the number of pending audio paths.
func (c *Client) Len(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, pendingKey).Result()
}

// All returns every pending audio path, oldest first.
func (c *Client) All(ctx context.Context) ([]string, error) {
	return c.rdb.ZRange(ctx, pendingKey, 0, -1).Result()
}

// Clear removes all pending audio paths.
func (c *Client) Clear(ctx context.Context) error {
	return c.rdb.Del(ctx, pendingKey).Err()
}
