// Package simulator manages form sessions and the charts computed for them.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/stakesim/pkg/amount"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/form"
	"github.com/amirasaad/stakesim/pkg/projection"
	"github.com/google/uuid"
)

// ---- Errors ----

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrChartNotReady   = errors.New("chart not computed yet")
)

// ---- Types ----

// SessionOptions overrides the configured defaults of a new session.
type SessionOptions struct {
	Coin       string
	Fiat       asset.FiatCode
	PeriodDays int
	Amount     *float64
}

type session struct {
	ctrl       *form.Controller
	chart      *Chart
	createdAt  time.Time
	lastActive time.Time
}

// Service owns every live form session.
type Service struct {
	catalog   *asset.Catalog
	prices    form.PriceSource
	publisher form.Publisher
	cfg       config.Simulator
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	sweepOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	stopped   chan struct{}
}

// New creates the service. publisher receives every settled change event.
func New(
	catalog *asset.Catalog,
	prices form.PriceSource,
	publisher form.Publisher,
	cfg config.Simulator,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:   catalog,
		prices:    prices,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "simulator")),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*session),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Catalog exposes the asset catalog the sessions select from.
func (s *Service) Catalog() *asset.Catalog { return s.catalog }

// ---- Sessions ----

// CreateSession starts a form session and returns its first snapshot.
func (s *Service) CreateSession(ctx context.Context, opts SessionOptions) (form.Snapshot, error) {
	cfg := form.Config{
		Debounce:      s.cfg.Debounce,
		DefaultAmount: s.cfg.DefaultAmount,
		DefaultPeriod: s.cfg.DefaultPeriod,
		DefaultCoin:   s.cfg.DefaultCoin,
		Fiat:          asset.DefaultFiat,
	}
	if opts.Coin != "" {
		cfg.DefaultCoin = opts.Coin
	}
	if opts.Fiat != "" {
		cfg.Fiat = opts.Fiat
	}
	if opts.PeriodDays != 0 {
		cfg.DefaultPeriod = opts.PeriodDays
	}
	if opts.Amount != nil {
		cfg.DefaultAmount = *opts.Amount
	}

	ctrl, err := form.New(ctx, s.catalog, s.prices, s.publisher, cfg, form.WithLogger(s.logger))
	if err != nil {
		return form.Snapshot{}, err
	}

	now := s.now()
	s.mu.Lock()
	s.sessions[ctrl.ID()] = &session{ctrl: ctrl, createdAt: now, lastActive: now}
	count := len(s.sessions)
	s.mu.Unlock()
	// Registered first so the projection can store the initial chart.
	ctrl.Start()

	s.logger.Info("Session created", "session", ctrl.ID(), "sessions", count)
	return ctrl.Snapshot()
}

func (s *Service) controller(id uuid.UUID) (*form.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastActive = s.now()
	return sess.ctrl, nil
}

// Snapshot returns the session state.
func (s *Service) Snapshot(id uuid.UUID) (form.Snapshot, error) {
	ctrl, err := s.controller(id)
	if err != nil {
		return form.Snapshot{}, err
	}
	return s.snapshot(ctrl)
}

func (s *Service) snapshot(ctrl *form.Controller) (form.Snapshot, error) {
	snap, err := ctrl.Snapshot()
	if errors.Is(err, form.ErrClosed) {
		return form.Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, ctrl.ID())
	}
	return snap, err
}

// EditAmount applies input text to one of the amounts. An invalid text
// still returns the snapshot together with amount.ErrInvalidNumericInput.
func (s *Service) EditAmount(id uuid.UUID, field amount.Field, text string) (form.Snapshot, error) {
	ctrl, err := s.controller(id)
	if err != nil {
		return form.Snapshot{}, err
	}
	editErr := ctrl.Edit(field, text)
	if editErr != nil && !errors.Is(editErr, amount.ErrInvalidNumericInput) {
		return form.Snapshot{}, s.closedAsNotFound(ctrl, editErr)
	}
	snap, err := s.snapshot(ctrl)
	if err != nil {
		return form.Snapshot{}, err
	}
	return snap, editErr
}

// SelectCoin switches the session's asset.
func (s *Service) SelectCoin(id uuid.UUID, coin string) (form.Snapshot, error) {
	return s.apply(id, func(c *form.Controller) error { return c.SelectCoin(coin) })
}

// SelectCurrency switches the session's fiat currency.
func (s *Service) SelectCurrency(id uuid.UUID, fiat string) (form.Snapshot, error) {
	return s.apply(id, func(c *form.Controller) error { return c.SelectCurrency(fiat) })
}

// SelectPeriod changes the session's staking period.
func (s *Service) SelectPeriod(id uuid.UUID, days int) (form.Snapshot, error) {
	return s.apply(id, func(c *form.Controller) error { return c.SelectPeriod(days) })
}

func (s *Service) apply(id uuid.UUID, fn func(*form.Controller) error) (form.Snapshot, error) {
	ctrl, err := s.controller(id)
	if err != nil {
		return form.Snapshot{}, err
	}
	if err := fn(ctrl); err != nil {
		return form.Snapshot{}, s.closedAsNotFound(ctrl, err)
	}
	return s.snapshot(ctrl)
}

func (s *Service) closedAsNotFound(ctrl *form.Controller, err error) error {
	if errors.Is(err, form.ErrClosed) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, ctrl.ID())
	}
	return err
}

// CloseSession ends a session and releases its timers.
func (s *Service) CloseSession(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.ctrl.Close()
	s.logger.Info("Session closed", "session", id)
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ---- Charts ----

// SaveChart stores chart for its session unless a chart for a newer event
// is already there. Charts for unknown sessions are dropped.
func (s *Service) SaveChart(_ context.Context, chart Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chart.SessionID]
	if !ok {
		s.logger.Debug("Dropping chart for unknown session", "session", chart.SessionID)
		return nil
	}
	if sess.chart != nil && chart.EventAt.Before(sess.chart.EventAt) {
		return nil
	}
	c := chart
	sess.chart = &c
	return nil
}

// Chart returns the latest chart of a session.
func (s *Service) Chart(id uuid.UUID) (Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Chart{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastActive = s.now()
	if sess.chart == nil {
		return Chart{}, ErrChartNotReady
	}
	return *sess.chart, nil
}

// Project is the stateless projection used by the API.
func (s *Service) Project(principal, apy float64, periodDays int) (projection.Result, error) {
	return projection.Project(principal, apy, periodDays)
}

// ---- Lifecycle ----

// Sweep closes sessions idle for longer than the configured TTL and returns
// how many were closed. A zero TTL disables expiry.
func (s *Service) Sweep() int {
	ttl := s.cfg.SessionTTL
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.ctrl.Close()
	}
	if len(expired) > 0 {
		s.logger.Info("Expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until Close. Only the first call
// starts a sweeper.
func (s *Service) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.sweepOnce.Do(func() {
		go func() {
			defer close(s.stopped)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-s.stop:
					return
				case <-ticker.C:
					s.Sweep()
				}
			}
		}()
	})
}

// Close stops the sweeper and closes every session.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		// Without a running sweeper nothing else closes stopped.
		s.sweepOnce.Do(func() { close(s.stopped) })
		<-s.stopped

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[uuid.UUID]*session)
		s.mu.Unlock()
		for _, sess := range sessions {
			sess.ctrl.Close()
		}
		s.logger.Info("Simulator closed", "sessions", len(sessions))
	})
}
