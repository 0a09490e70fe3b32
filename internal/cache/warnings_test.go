package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"supplychain/internal/domain"
	"supplychain/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.WarningCache = (*WarningCache)(nil)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestWarningCacheRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	c := NewWarningCache(rdb, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetWarnings(ctx, "warnings:all::1:20")
	require.NoError(t, err)
	assert.False(t, ok)

	materialID := int64(4)
	page := domain.Page[domain.Warning]{
		Items: []domain.Warning{{ID: 1, Level: "RED", MaterialID: &materialID, WarningType: "OUT_OF_STOCK", Message: "no stock"}},
		Total: 9,
	}
	require.NoError(t, c.SetWarnings(ctx, "warnings:all::1:20", page))
	assert.Equal(t, time.Minute, rdb.ttls["supplychain:warnings:all::1:20"])

	got, ok, err := c.GetWarnings(ctx, "warnings:all::1:20")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "OUT_OF_STOCK", got.Items[0].WarningType)
	require.NotNil(t, got.Items[0].MaterialID)
	assert.Equal(t, int64(4), *got.Items[0].MaterialID)
}

func TestWarningCacheErrors(t *testing.T) {
	rdb := newFakeRedis()
	c := NewWarningCache(rdb, 0)
	ctx := context.Background()

	rdb.values["supplychain:bad"] = "{not json"
	_, ok, err := c.GetWarnings(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, ok)

	rdb.err = errors.New("connection refused")
	_, _, err = c.GetWarnings(ctx, "warnings:all::1:20")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, c.SetWarnings(ctx, "warnings:all::1:20", domain.Page[domain.Warning]{}))
}
