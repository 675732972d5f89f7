package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-service/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemember_DisabledCallsLoader(t *testing.T) {
	require.NoError(t, Initialize(&config.RedisConfig{}, "shop-service"))

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	for i := 0; i < 2; i++ {
		data, err := Remember(context.Background(), KeyProducts, load)
		require.NoError(t, err)
		assert.JSONEq(t, `["a","b"]`, string(data))
	}
	assert.Equal(t, 2, calls)

	Invalidate(context.Background(), KeyProducts)
	assert.NoError(t, Close())
}

func TestRemember_PropagatesLoaderError(t *testing.T) {
	Set(nil)
	boom := errors.New("boom")

	_, err := Remember(context.Background(), KeyCategories, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRemember_UnreachableRedisFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	Set(New(client, "test:", time.Minute))
	t.Cleanup(func() {
		_ = Close()
		Set(nil)
	})

	data, err := Remember(context.Background(), KeySubcategories, func() (interface{}, error) {
		return map[string]int{"n": 1}, nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(data))

	Invalidate(context.Background(), KeySubcategories)
}

func TestInitialize_UnreachableRedis(t *testing.T) {
	Set(nil)
	err := Initialize(&config.RedisConfig{Addr: "127.0.0.1:1"}, "shop-service")
	assert.Error(t, err)
	assert.Nil(t, current)
}

func TestRemember_HitAndInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	Set(New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", time.Minute))
	t.Cleanup(func() {
		_ = Close()
		Set(nil)
	})

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []int{calls}, nil
	}
	ctx := context.Background()

	data, err := Remember(ctx, KeyProducts, load)
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(data))

	data, err = Remember(ctx, KeyProducts, load)
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(data))
	assert.Equal(t, 1, calls)

	stored, err := mr.Get("test:" + KeyProducts)
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, stored)
	assert.Equal(t, time.Minute, mr.TTL("test:"+KeyProducts))

	Invalidate(ctx, KeyProducts, KeyCategories)
	assert.False(t, mr.Exists("test:"+KeyProducts))

	data, err = Remember(ctx, KeyProducts, load)
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, string(data))
}

func TestInitialize_ConnectsWithServicePrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() {
		_ = Close()
		Set(nil)
	})

	require.NoError(t, Initialize(&config.RedisConfig{Addr: mr.Addr(), TTL: time.Minute}, "shop-service"))
	_, err := Remember(context.Background(), KeyCategories, func() (interface{}, error) {
		return []string{}, nil
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("shop-service:"+KeyCategories))
}
