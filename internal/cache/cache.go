package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)

	SetSummary(ctx context.Context, s *models.TestSummary, ttl time.Duration) error
	GetSummary(ctx context.Context, id int64) (*models.TestSummary, bool, error)
	SetRun(ctx context.Context, r *models.SimulationRun, ttl time.Duration) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, bool, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error { return c.client.Close() }

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// IncrWithExpiry increments key and refreshes its TTL in one transaction.
func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Summaries are immutable once written, so they can be cached for as long as
// the caller likes.
func (c *RedisCache) SetSummary(ctx context.Context, s *models.TestSummary, ttl time.Duration) error {
	return c.setJSON(ctx, SummaryKey(s.ID), s, ttl)
}

func (c *RedisCache) GetSummary(ctx context.Context, id int64) (*models.TestSummary, bool, error) {
	var s models.TestSummary
	found, err := c.getJSON(ctx, SummaryKey(id), &s)
	if !found || err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (c *RedisCache) SetRun(ctx context.Context, r *models.SimulationRun, ttl time.Duration) error {
	return c.setJSON(ctx, RunKey(r.ID), r, ttl)
}

func (c *RedisCache) GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, bool, error) {
	var r models.SimulationRun
	found, err := c.getJSON(ctx, RunKey(id), &r)
	if !found || err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

// DeleteRun drops a cached run after its grade changes.
func (c *RedisCache) DeleteRun(ctx context.Context, id uuid.UUID) error {
	return c.Delete(ctx, RunKey(id))
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, found, err := c.Get(ctx, key)
	if !found || err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

var _ Cache = (*RedisCache)(nil)
