// Package price holds the latest known spot prices for every coin and fiat
// pair, tracks the refresh state and notifies subscribers of new tables.
package price

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amirasaad/stakesim/pkg/cache"
	"github.com/amirasaad/stakesim/pkg/provider"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey      = "refresh"
	defaultCacheKey = "latest"
)

// Status is the refresh state visible to consumers.
type Status struct {
	Loading   bool               `json:"loading"`
	LastError string             `json:"last_error,omitempty"`
	ErrorKind provider.ErrorKind `json:"error_kind,omitempty"`
	FetchedAt time.Time          `json:"fetched_at"`
	Source    string             `json:"source,omitempty"`
	HasData   bool               `json:"has_data"`
	// Stale is set while the visible table did not come from the most
	// recent refresh attempt.
	Stale bool `json:"stale"`

	err error
}

// Err returns the recorded refresh error, if any.
func (s Status) Err() error { return s.err }

// Listener receives every table installed by a successful refresh.
type Listener func(*Table)

// Store owns the price table. The table is replaced wholesale; readers see
// either the previous or the new complete table.
type Store struct {
	provider provider.PriceProvider
	coinIDs  []string
	fiats    []string
	logger   *slog.Logger
	now      func() time.Time

	cache    cache.PriceCache
	cacheKey string
	cacheTTL time.Duration
	interval time.Duration

	table atomic.Pointer[Table]
	group singleflight.Group

	mu        sync.Mutex
	loading   int
	lastErr   error
	stale     bool
	listeners map[int]Listener
	nextID    int

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithCache persists every good table and seeds the store on Start.
func WithCache(c cache.PriceCache, key string, ttl time.Duration) Option {
	return func(s *Store) {
		s.cache = c
		if key != "" {
			s.cacheKey = key
		}
		s.cacheTTL = ttl
	}
}

// WithRefreshInterval enables periodic refresh after Start. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store that refreshes every coin in coinIDs against
// every code in fiats with one provider call.
func NewStore(p provider.PriceProvider, coinIDs, fiats []string, opts ...Option) *Store {
	s := &Store{
		provider:  p,
		coinIDs:   append([]string(nil), coinIDs...),
		fiats:     append([]string(nil), fiats...),
		logger:    slog.Default(),
		now:       time.Now,
		cacheKey:  defaultCacheKey,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "price-store"))
	return s
}

// Refresh fetches all pairs. On success the table is swapped, the error is
// cleared and listeners are notified. On failure the previous table stays
// visible and the error is recorded. Concurrent calls share one fetch.
func (s *Store) Refresh(ctx context.Context) (*Table, error) {
	v, err, shared := s.group.Do(refreshKey, func() (any, error) {
		return s.refresh(ctx)
	})
	if shared {
		s.logger.Debug("Refresh coalesced with in-flight request")
	}
	t, _ := v.(*Table)
	return t, err
}

// Retry re-runs the identical refresh.
func (s *Store) Retry(ctx context.Context) (*Table, error) {
	s.logger.Info("Manual price refresh requested")
	return s.Refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) (*Table, error) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}()

	quotes, err := s.provider.FetchPrices(ctx, s.coinIDs, s.fiats)
	if err != nil {
		var fe *provider.FetchError
		if !errors.As(err, &fe) {
			err = &provider.FetchError{
				Provider: s.provider.Name(),
				Kind:     provider.ErrorKindNetwork,
				Err:      err,
			}
		}
		s.mu.Lock()
		s.lastErr = err
		s.stale = s.table.Load() != nil
		s.mu.Unlock()
		s.logger.Warn("Price refresh failed, keeping previous table",
			"provider", s.provider.Name(),
			"error", err,
		)
		return s.table.Load(), err
	}

	t := NewTable(quotes, s.now(), s.provider.Name())
	s.install(t)
	s.mu.Lock()
	s.lastErr = nil
	s.stale = false
	s.mu.Unlock()

	s.logger.Info("Prices refreshed", "coins", t.Len(), "provider", t.Source())
	s.persist(ctx, t)
	return t, nil
}

func (s *Store) install(t *Table) {
	s.table.Store(t)

	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(t)
	}
}

func (s *Store) persist(ctx context.Context, t *Table) {
	if s.cache == nil {
		return
	}
	snap := &cache.PriceSnapshot{
		Quotes:    t.Quotes(),
		FetchedAt: t.FetchedAt(),
		Source:    t.Source(),
	}
	if err := s.cache.Set(ctx, s.cacheKey, snap, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to persist prices", "error", err)
	}
}

// Price is a pure lookup against the current table.
func (s *Store) Price(coinID, fiat string) (float64, bool) {
	return s.table.Load().Price(coinID, fiat)
}

// Table returns the current table, nil before the first load.
func (s *Store) Table() *Table {
	return s.table.Load()
}

// Status reports loading and error state.
func (s *Store) Status() Status {
	t := s.table.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Loading:   s.loading > 0,
		FetchedAt: t.FetchedAt(),
		Source:    t.Source(),
		HasData:   t != nil,
		Stale:     s.stale,
		err:       s.lastErr,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.ErrorKind = provider.KindOf(s.lastErr)
	}
	return st
}

// Subscribe registers l for future tables. The returned func unsubscribes.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Start activates the store once: it seeds the table from the cache, then
// runs one refresh and the periodic loop in the background.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.seed(ctx)

		loopCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancel = cancel
		s.done = make(chan struct{})
		s.mu.Unlock()

		go s.loop(loopCtx)
	})
}

func (s *Store) seed(ctx context.Context) {
	if s.cache == nil || s.table.Load() != nil {
		return
	}
	snap, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil {
		s.logger.Warn("Failed to read cached prices", "error", err)
		return
	}
	if snap == nil {
		return
	}
	t := NewTable(snap.Quotes, snap.FetchedAt, snap.Source)
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
	s.install(t)
	s.logger.Info("Seeded prices from cache", "coins", t.Len(), "fetched_at", snap.FetchedAt)
}

func (s *Store) loop(ctx context.Context) {
	defer close(s.done)

	_, _ = s.Refresh(ctx)
	if s.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Refresh(ctx)
		}
	}
}

// Dispose stops the background loop and drops all listeners.
func (s *Store) Dispose() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel, done := s.cancel, s.done
		s.listeners = make(map[int]Listener)
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		s.logger.Debug("Price store disposed")
	})
}
