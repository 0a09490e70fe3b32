// Package cache keeps rendered warning pages in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supplychain/internal/domain"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// client is the subset of *redis.Client the cache needs.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type WarningCache struct {
	rdb    client
	ttl    time.Duration
	prefix string
}

func NewWarningCache(rdb client, ttl time.Duration) *WarningCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &WarningCache{rdb: rdb, ttl: ttl, prefix: "supplychain:"}
}

type warningPage struct {
	Items []domain.Warning `json:"items"`
	Total int              `json:"total"`
}

func (c *WarningCache) GetWarnings(ctx context.Context, key string) (domain.Page[domain.Warning], bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Page[domain.Warning]{}, false, nil
	}
	if err != nil {
		return domain.Page[domain.Warning]{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	var page warningPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return domain.Page[domain.Warning]{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return domain.Page[domain.Warning]{Items: page.Items, Total: page.Total}, true, nil
}

func (c *WarningCache) SetWarnings(ctx context.Context, key string, page domain.Page[domain.Warning]) error {
	raw, err := json.Marshal(warningPage{Items: page.Items, Total: page.Total})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
