package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	data    map[string]string
	ttl     map[string]time.Duration
	failing error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failing != nil {
		return redis.NewStringResult("", f.failing)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	if f.failing != nil {
		return redis.NewStatusResult("", f.failing)
	}
	f.data[key] = string(value.([]byte))
	f.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type item struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

func TestRedisCache_RoundTrip(t *testing.T) {
	client := newFakeClient()
	c := NewRedisCache(client, "sf:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:1", item{Name: "Kurta", Stock: 3}, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, client.ttl["sf:product:1"])

	var got item
	require.NoError(t, c.Get(ctx, "product:1", &got))
	assert.Equal(t, "Kurta", got.Name)

	require.NoError(t, c.Delete(ctx, "product:1"))
	assert.ErrorIs(t, c.Get(ctx, "product:1", &got), ErrMiss)
}

func TestRedisCache_BackendError(t *testing.T) {
	client := newFakeClient()
	client.failing = errors.New("connection refused")
	c := NewRedisCache(client, "")

	var got item
	err := c.Get(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, c.Set(context.Background(), "k", item{}, time.Minute))
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	assert.ErrorIs(t, c.Get(context.Background(), "k", &item{}), ErrMiss)
	assert.NoError(t, c.Set(context.Background(), "k", item{}, time.Minute))
	assert.NoError(t, c.Delete(context.Background(), "k"))
}
