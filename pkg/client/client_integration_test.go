//go:build integration

package client

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/Sternrassler/scjn-client/internal/testutil"
	"github.com/Sternrassler/scjn-client/pkg/cache"
	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/Sternrassler/scjn-client/pkg/search"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())

	t.Cleanup(func() {
		_ = rdb.Close()
		_ = container.Terminate(context.Background())
	})
	return rdb
}

func newRedisClient(t *testing.T, mock *testutil.MockSCJN, rdb *redis.Client) *Client {
	t.Helper()

	nop := zerolog.Nop()
	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.Retry = fastRetry()
	cfg.Gate = ratelimit.GateConfig{MaxConcurrent: 3}
	cfg.Redis = rdb
	cfg.Logger = &nop

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestIntegration_GetTesisCachedAndRevalidated(t *testing.T) {
	rdb := setupRedis(t)
	mock := testutil.NewMockSCJN(5)
	defer mock.Close()
	c := newRedisClient(t, mock, rdb)
	ctx := context.Background()

	id := strconv.Itoa(testutil.BaseIUS + 2)

	first, err := c.GetTesis(ctx, id)
	require.NoError(t, err)
	second, err := c.GetTesis(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first.Rubro, second.Rubro)
	assert.Equal(t, 1, mock.RequestCount(), "second lookup served from cache")

	// Expire the entry; it stays retained for revalidation.
	store := cache.NewStore(rdb, 0)
	key := cache.Key{Path: "/tesis/" + id, Query: url.Values{"hostName": {DefaultHostName}}}
	entry, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, key, &cache.Entry{
		Body:     entry.Body,
		ETag:     entry.ETag,
		Expires:  time.Now().Add(-time.Second),
		StoredAt: entry.StoredAt,
	}))

	third, err := c.GetTesis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Rubro, third.Rubro)
	assert.Equal(t, 2, mock.RequestCount())
	assert.Equal(t, 1, mock.ConditionalCount(), "stale entry revalidated with If-None-Match")

	refreshed, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, refreshed.IsExpired(), "304 extends the entry")
}

func TestIntegration_ThrottleSharedCooldown(t *testing.T) {
	rdb := setupRedis(t)
	mock := testutil.NewMockSCJN(10)
	defer mock.Close()
	mock.ThrottlePage(0, 1, "1")
	c := newRedisClient(t, mock, rdb)
	ctx := context.Background()

	start := time.Now()
	_, err := c.Search(ctx, search.Filter{}, 0, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond, "retry waited for the recorded cooldown")

	state, err := ratelimit.NewTracker(rdb, zerolog.Nop()).GetState(ctx)
	require.NoError(t, err)
	assert.False(t, state.LastThrottle.IsZero())
}

func TestIntegration_BulkExtractionWithRedis(t *testing.T) {
	rdb := setupRedis(t)
	mock := testutil.NewMockSCJN(120)
	defer mock.Close()
	c := newRedisClient(t, mock, rdb)

	ids, err := c.GetAllIDs(context.Background(), search.Filter{}, testOptions(25))
	require.NoError(t, err)
	assert.Len(t, ids, 120)

	keys, err := rdb.Keys(context.Background(), cache.KeyPrefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys, "pages are never cached")
}
