package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func sampleSnapshot() *cache.PriceSnapshot {
	return &cache.PriceSnapshot{
		Quotes:    provider.Quotes{"bitcoin": {"usd": 67000, "eur": 61800}},
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:    "coingecko",
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	got, err := c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "latest", sampleSnapshot(), 0))
	got, err = c.Get(ctx, "latest")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 67000.0, got.Quotes["bitcoin"]["usd"], 1e-9)

	require.NoError(t, c.Delete(ctx, "latest"))
	got, err = c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "latest", sampleSnapshot(), time.Minute))
	got, err := c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(2 * time.Minute)
	got, err = c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func setupRedisCache(t *testing.T) *RedisPriceCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7.0.5",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cfg := &config.Redis{URL: "redis://" + host + ":" + port.Port(), KeyPrefix: "test:"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewRedisPriceCache(cfg, "prices:", logger)
	require.NoError(t, err)
	require.NoError(t, c.Ping(ctx))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisPriceCache(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	got, err := c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "latest", sampleSnapshot(), time.Hour))
	got, err = c.Get(ctx, "latest")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 61800.0, got.Quotes["bitcoin"]["eur"], 1e-9)
	assert.Equal(t, "coingecko", got.Source)
	assert.True(t, got.FetchedAt.Equal(sampleSnapshot().FetchedAt))

	require.NoError(t, c.Delete(ctx, "latest"))
	got, err = c.Get(ctx, "latest")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisPriceCache_Validation(t *testing.T) {
	_, err := NewRedisPriceCache(&config.Redis{}, "p:", nil)
	assert.Error(t, err)
	_, err = NewRedisPriceCache(&config.Redis{URL: "://bad"}, "p:", nil)
	assert.Error(t, err)
}
