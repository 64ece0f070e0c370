package price

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchPrices(ctx context.Context, coinIDs, fiats []string) (provider.Quotes, error) {
	args := m.Called(ctx, coinIDs, fiats)
	q, _ := args.Get(0).(provider.Quotes)
	return q, args.Error(1)
}

func (m *mockProvider) Name() string { return "mock" }

type memCache struct {
	mu   sync.Mutex
	data map[string]*cache.PriceSnapshot
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string]*cache.PriceSnapshot{}} }

func (c *memCache) Get(_ context.Context, key string) (*cache.PriceSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, snap *cache.PriceSnapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = snap
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

var (
	testCoins  = []string{"bitcoin", "ethereum"}
	testFiats  = []string{"usd", "eur"}
	goodQuotes = provider.Quotes{
		"bitcoin":  {"usd": 67000, "eur": 61800},
		"ethereum": {"usd": 3500},
	}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(p provider.PriceProvider, opts ...Option) *Store {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return NewStore(p, testCoins, testFiats, opts...)
}

func TestTable_DropsUnusablePrices(t *testing.T) {
	table := NewTable(provider.Quotes{
		"bitcoin":  {"USD": 100, "eur": 0},
		"cardano":  {"usd": math.NaN()},
		"solana":   {"usd": -1},
		"polkadot": {"usd": math.Inf(1)},
	}, time.Now(), "test")

	p, ok := table.Price("bitcoin", "usd")
	assert.True(t, ok)
	assert.InDelta(t, 100.0, p, 1e-12)

	tests := []struct{ coin, fiat string }{
		{"bitcoin", "eur"},
		{"cardano", "usd"},
		{"solana", "usd"},
		{"polkadot", "usd"},
		{"unknown", "usd"},
		{"bitcoin", "gbp"},
	}
	for _, tt := range tests {
		t.Run(tt.coin+"/"+tt.fiat, func(t *testing.T) {
			p, ok := table.Price(tt.coin, tt.fiat)
			assert.False(t, ok)
			assert.Zero(t, p)
		})
	}
	assert.Equal(t, 1, table.Len())

	var nilTable *Table
	_, ok = nilTable.Price("bitcoin", "usd")
	assert.False(t, ok)
}

func TestTable_IsImmutable(t *testing.T) {
	src := provider.Quotes{"bitcoin": {"usd": 100}}
	table := NewTable(src, time.Now(), "test")
	src["bitcoin"]["usd"] = 1

	q := table.Quotes()
	q["bitcoin"]["usd"] = 2

	p, _ := table.Price("bitcoin", "usd")
	assert.InDelta(t, 100.0, p, 1e-12)
}

func TestStore_RefreshSuccess(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(goodQuotes, nil).Once()
	c := newMemCache()
	s := newTestStore(p, WithCache(c, "", time.Hour))

	var notified atomic.Int32
	s.Subscribe(func(*Table) { notified.Add(1) })

	table, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, table)

	price, ok := s.Price("bitcoin", "eur")
	assert.True(t, ok)
	assert.InDelta(t, 61800.0, price, 1e-9)
	_, ok = s.Price("ethereum", "eur")
	assert.False(t, ok)

	st := s.Status()
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
	assert.True(t, st.HasData)
	assert.False(t, st.Stale)
	assert.Equal(t, int32(1), notified.Load())

	snap, err := c.Get(context.Background(), defaultCacheKey)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.InDelta(t, 67000.0, snap.Quotes["bitcoin"]["usd"], 1e-9)
	p.AssertExpectations(t)
}

func TestStore_FailureKeepsPreviousTable(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(goodQuotes, nil).Once()
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).
		Return(nil, &provider.FetchError{Provider: "mock", Kind: provider.ErrorKindStatus, StatusCode: 503}).Once()
	s := newTestStore(p)

	first, err := s.Refresh(context.Background())
	require.NoError(t, err)

	second, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrFetch)
	assert.Same(t, first, second)

	price, ok := s.Price("bitcoin", "usd")
	assert.True(t, ok)
	assert.InDelta(t, 67000.0, price, 1e-9)

	st := s.Status()
	assert.Equal(t, provider.ErrorKindStatus, st.ErrorKind)
	assert.Contains(t, st.LastError, "503")
	assert.True(t, st.Stale)
	assert.True(t, st.HasData)
}

func TestStore_ErrorClearedOnlyOnSuccess(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(nil, errors.New("dial tcp: refused")).Twice()
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(goodQuotes, nil).Once()
	s := newTestStore(p)

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, provider.ErrorKindNetwork, s.Status().ErrorKind)
	assert.False(t, s.Status().HasData)

	_, err = s.Retry(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, s.Status().LastError)

	_, err = s.Retry(context.Background())
	require.NoError(t, err)
	st := s.Status()
	assert.Empty(t, st.LastError)
	assert.NoError(t, st.Err())
	assert.Empty(t, st.ErrorKind)
	p.AssertExpectations(t)
}

func TestStore_IdempotentRefresh(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(goodQuotes, nil).Twice()
	s := newTestStore(p)

	first, err := s.Refresh(context.Background())
	require.NoError(t, err)
	second, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, first.SamePrices(second))
}

func TestStore_ConcurrentRefreshCoalesced(t *testing.T) {
	release := make(chan struct{})
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).
		Run(func(mock.Arguments) { <-release }).
		Return(goodQuotes, nil)
	s := newTestStore(p)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return s.Status().Loading }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, len(p.Calls), 5)
	assert.GreaterOrEqual(t, len(p.Calls), 1)
	assert.False(t, s.Status().Loading)
}

func TestStore_StartSeedsFromCacheAndRefreshes(t *testing.T) {
	c := newMemCache()
	seededAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(context.Background(), defaultCacheKey, &cache.PriceSnapshot{
		Quotes:    provider.Quotes{"bitcoin": {"usd": 60000}},
		FetchedAt: seededAt,
		Source:    "mock",
	}, 0))

	release := make(chan struct{})
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).
		Run(func(mock.Arguments) { <-release }).
		Return(goodQuotes, nil).Once()
	s := newTestStore(p, WithCache(c, "", 0))
	defer s.Dispose()

	s.Start(context.Background())
	s.Start(context.Background())

	price, ok := s.Price("bitcoin", "usd")
	require.True(t, ok)
	assert.InDelta(t, 60000.0, price, 1e-9)
	assert.True(t, s.Status().Stale)
	assert.Equal(t, seededAt, s.Status().FetchedAt)

	close(release)
	require.Eventually(t, func() bool {
		p, _ := s.Price("bitcoin", "usd")
		return p == 67000
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.Status().Stale)
}

func TestStore_PeriodicRefreshAndDispose(t *testing.T) {
	var calls atomic.Int32
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(goodQuotes, nil)
	s := newTestStore(p, WithRefreshInterval(10*time.Millisecond))

	s.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Dispose()
	after := calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestStore_Unsubscribe(t *testing.T) {
	p := new(mockProvider)
	p.On("FetchPrices", mock.Anything, testCoins, testFiats).Return(goodQuotes, nil)
	s := newTestStore(p)

	var got atomic.Int32
	unsubscribe := s.Subscribe(func(*Table) { got.Add(1) })
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), got.Load())
}
