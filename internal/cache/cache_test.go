package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/cache"
	"github.com/curiocity/cityguide/internal/geo"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis, *testClock) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.New(cache.NewRedisStore(client), zap.NewNop(), cache.WithClock(clock.now))
	return c, mr, clock
}

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestCache_SetAndGet(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "cache:places:1", sample{Name: "Paris", Items: []string{"Louvre"}})

	var got sample
	require.True(t, c.Get(ctx, "cache:places:1", &got))
	assert.Equal(t, "Paris", got.Name)
	assert.Equal(t, []string{"Louvre"}, got.Items)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _, _ := newTestCache(t)

	var got sample
	assert.False(t, c.Get(context.Background(), "cache:nonexistent", &got))
}

func TestCache_EnvelopeFormat(t *testing.T) {
	c, mr, clock := newTestCache(t)

	c.Set(context.Background(), "cache:news:paris", []string{"a"})

	raw, err := mr.Get("cache:news:paris")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":["a"],"timestamp":`+itoa(clock.t.UnixMilli())+`}`, raw)
}

func TestCache_StaleByClock(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "cache:places:1", sample{Name: "Paris"})

	clock.t = clock.t.Add(29 * time.Minute)
	var got sample
	assert.True(t, c.Get(ctx, "cache:places:1", &got), "entry younger than TTL should hit")

	clock.t = clock.t.Add(2 * time.Minute)
	assert.False(t, c.Get(ctx, "cache:places:1", &got), "entry older than TTL should miss")
}

func TestCache_RedisTTL(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "cache:places:1", sample{Name: "Paris"})

	mr.FastForward(31 * time.Minute)

	var got sample
	assert.False(t, c.Get(ctx, "cache:places:1", &got), "redis should have expired the key")
}

func TestCache_WithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &testClock{t: time.Now()}
	c := cache.New(cache.NewRedisStore(client), zap.NewNop(), cache.WithClock(clock.now), cache.WithTTL(time.Minute))
	ctx := context.Background()

	c.Set(ctx, "cache:k", 1)
	clock.t = clock.t.Add(61 * time.Second)

	var got int
	assert.False(t, c.Get(ctx, "cache:k", &got))
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr, _ := newTestCache(t)
	require.NoError(t, mr.Set("cache:places:1", "not json"))

	var got sample
	assert.False(t, c.Get(context.Background(), "cache:places:1", &got))
}

func TestCache_CorruptPayloadIsMiss(t *testing.T) {
	c, mr, clock := newTestCache(t)
	require.NoError(t, mr.Set("cache:places:1", `{"data":"oops","timestamp":`+itoa(clock.t.UnixMilli())+`}`))

	var got sample
	assert.False(t, c.Get(context.Background(), "cache:places:1", &got))
}

func TestCache_BackendDownIsMiss(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	// Neither call may panic or block once redis is gone.
	c.Set(ctx, "cache:places:1", sample{Name: "Paris"})
	var got sample
	assert.False(t, c.Get(ctx, "cache:places:1", &got))
}

func TestCache_ClearAll(t *testing.T) {
	c, mr, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		c.Set(ctx, "cache:places:"+itoa(int64(i)), i)
	}
	require.NoError(t, mr.Set("session:abc", "keep"))

	require.NoError(t, c.ClearAll(ctx))

	var got int
	assert.False(t, c.Get(ctx, "cache:places:0", &got))
	assert.False(t, c.Get(ctx, "cache:places:249", &got))
	assert.True(t, mr.Exists("session:abc"), "keys outside the cache prefix must survive")
}

func TestKey(t *testing.T) {
	nyc := geo.Coordinate{Latitude: 40.7128, Longitude: -74.006}

	assert.Equal(t, "cache:places:40.7128,-74.0060", cache.Key("places", nyc))
	assert.Equal(t, "cache:places:40.7128,-74.0060:5000", cache.Key("places", nyc, "5000"))
	assert.Equal(t, "cache:restaurants:40.7128,-74.0060:new york", cache.Key("restaurants", nyc, " New York "))
	assert.Equal(t, "cache:restaurants:40.7128,-74.0060", cache.Key("restaurants", nyc, ""))
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "cache:news:paris:fr", cache.QueryKey("news", "Paris", "FR"))
	assert.Equal(t, "cache:search:new york", cache.QueryKey("search", "New York"))
	assert.Equal(t, "cache:news:paris", cache.QueryKey("news", "Paris", ""))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, cache.NewRedisStore(client).Ping(context.Background()))
}
