package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisBus starts a Redis container using testcontainers-go and returns a
// RedisEventBus closed on test cleanup.
func setupRedisBus(t *testing.T) *RedisEventBus {
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

	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	cfg := &config.Redis{
		URL:    "redis://" + host + ":" + port.Port(),
		Stream: "test:events",
		Group:  "test",
	}
	bus, err := NewWithRedis(cfg, nil, quietLogger())
	require.NoError(t, err)
	bus.block = 100 * time.Millisecond
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisBusHandlerReceivesEvent(t *testing.T) {
	bus := setupRedisBus(t)

	received := make(chan *events.ChangeEvent, 1)
	bus.Register(events.EventTypeSimulationChanged.String(), func(_ context.Context, e events.Event) error {
		received <- e.(*events.ChangeEvent)
		return nil
	})

	sent := sampleChange()
	require.NoError(t, bus.Emit(context.Background(), sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, sent.SessionID, got.SessionID)
		assert.InDelta(t, sent.AmountInFiat, got.AmountInFiat, 1e-9)
		assert.Equal(t, sent.CryptoSymbol, got.CryptoSymbol)
		assert.True(t, got.PriceAvailable)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestRedisBusEveryHandlerSeesEveryEvent(t *testing.T) {
	bus := setupRedisBus(t)

	first := make(chan struct{}, 3)
	second := make(chan struct{}, 3)
	bus.Register(events.EventTypeSimulationChanged.String(), func(context.Context, events.Event) error {
		first <- struct{}{}
		return nil
	})
	bus.Register(events.EventTypeSimulationChanged.String(), func(context.Context, events.Event) error {
		second <- struct{}{}
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Emit(context.Background(), sampleChange()))
	}

	for _, ch := range []chan struct{}{first, second} {
		for i := 0; i < 3; i++ {
			select {
			case <-ch:
			case <-time.After(5 * time.Second):
				t.Fatal("not all events were delivered")
			}
		}
	}
}

func TestNewWithRedis_Validation(t *testing.T) {
	_, err := NewWithRedis(nil, nil, nil)
	assert.Error(t, err)
	_, err = NewWithRedis(&config.Redis{URL: "redis://localhost:6379"}, nil, nil)
	assert.Error(t, err)
	_, err = NewWithRedis(&config.Redis{URL: "://", Stream: "s", Group: "g"}, nil, nil)
	assert.Error(t, err)
}
