// Package form binds the staking form inputs of one session to the amount
// synchronizer and emits a ChangeEvent once per settled state.
//
// Every transition runs on the controller's own goroutine. Amount edits are
// applied immediately so both amounts stay consistent; the debouncers only
// gate emission.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/amirasaad/stakesim/pkg/amount"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/debounce"
	"github.com/amirasaad/stakesim/pkg/events"
	"github.com/amirasaad/stakesim/pkg/price"
	"github.com/amirasaad/stakesim/pkg/projection"
	"github.com/google/uuid"
)

var (
	ErrClosed        = errors.New("form session closed")
	ErrInvalidPeriod = projection.ErrInvalidPeriod
)

// PriceSource is the part of the price store a form needs.
type PriceSource interface {
	Price(coinID, fiat string) (float64, bool)
	Subscribe(l price.Listener) (unsubscribe func())
}

// Publisher receives settled change events.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Config holds the session defaults.
type Config struct {
	Debounce      time.Duration
	DefaultAmount float64
	DefaultPeriod int
	DefaultCoin   string
	Fiat          asset.FiatCode
	EmitTimeout   time.Duration
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	SessionID      uuid.UUID           `json:"session_id"`
	State          amount.State        `json:"state"`
	Coin           asset.Asset         `json:"coin"`
	Fiat           asset.FiatCode      `json:"fiat"`
	PeriodDays     int                 `json:"period_days"`
	Price          float64             `json:"price"`
	PriceAvailable bool                `json:"price_available"`
	Pending        bool                `json:"pending"`
	InputError     string              `json:"input_error,omitempty"`
	LastEvent      *events.ChangeEvent `json:"last_event,omitempty"`
	Emitted        int                 `json:"emitted"`
}

// Controller owns one form session.
type Controller struct {
	id        uuid.UUID
	catalog   *asset.Catalog
	prices    PriceSource
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	ctx       context.Context
	timeout   time.Duration

	inbox chan func()
	quit  chan struct{}
	done  chan struct{}

	fiatDebounce   *debounce.Debouncer[uint64]
	cryptoDebounce *debounce.Debouncer[uint64]
	unsubscribe    func()

	// Loop-owned state below.
	state         amount.State
	coin          asset.Asset
	fiat          asset.FiatCode
	period        int
	fiatRev       uint64
	cryptoRev     uint64
	settledFiat   uint64
	settledCrypto uint64
	inputErr      error
	lastEmitted   *events.ChangeEvent
	emitted       int

	starting sync.Once
	closing  sync.Once
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithID(id uuid.UUID) Option {
	return func(c *Controller) { c.id = id }
}

// New creates a session with the configured defaults. Nothing is emitted
// and no price updates arrive until Start is called.
func New(
	ctx context.Context,
	catalog *asset.Catalog,
	prices PriceSource,
	publisher Publisher,
	cfg Config,
	opts ...Option,
) (*Controller, error) {
	coin := catalog.Default()
	if cfg.DefaultCoin != "" {
		a, err := catalog.Lookup(cfg.DefaultCoin)
		if err != nil {
			return nil, err
		}
		coin = a
	}
	fiat := cfg.Fiat
	if fiat == "" {
		fiat = asset.DefaultFiat
	}
	if _, err := catalog.ParseFiat(string(fiat)); err != nil {
		return nil, err
	}
	period := cfg.DefaultPeriod
	if period == 0 {
		period = 365
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	if cfg.DefaultAmount < 0 || math.IsNaN(cfg.DefaultAmount) || math.IsInf(cfg.DefaultAmount, 0) {
		return nil, fmt.Errorf("%w: default amount %v", amount.ErrInvalidNumericInput, cfg.DefaultAmount)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.EmitTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := &Controller{
		id:        uuid.New(),
		catalog:   catalog,
		prices:    prices,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
		ctx:       context.WithoutCancel(ctx),
		timeout:   timeout,
		inbox:     make(chan func(), 64),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		coin:      coin,
		fiat:      fiat,
		period:    period,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "form"), slog.String("session", c.id.String()))

	c.fiatDebounce = debounce.New(cfg.Debounce, func(rev uint64) {
		c.post(func() { c.settle(amount.Fiat, rev) })
	})
	c.cryptoDebounce = debounce.New(cfg.Debounce, func(rev uint64) {
		c.post(func() { c.settle(amount.Crypto, rev) })
	})

	c.state = amount.NewState(cfg.DefaultAmount, c.currentPrice())
	go c.run()
	return c, nil
}

// Start subscribes the session to price updates and queues the initial
// settled state. Calls after the first are no-ops.
func (c *Controller) Start() {
	c.starting.Do(func() {
		c.unsubscribe = c.prices.Subscribe(func(t *price.Table) {
			c.post(func() { c.onPriceChange(t) })
		})
		c.post(c.maybeEmit)
	})
}

// ID is the session id.
func (c *Controller) ID() uuid.UUID { return c.id }

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.quit:
			return
		}
	}
}

// post queues fn without waiting. It is dropped once the session is closed.
func (c *Controller) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.quit:
	}
}

// call runs fn on the loop and waits for it.
func (c *Controller) call(fn func()) error {
	ran := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(ran) }:
	case <-c.quit:
		return ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-c.quit:
		return ErrClosed
	}
}

// EditFiat sets the fiat amount; crypto is derived at the current price.
func (c *Controller) EditFiat(v float64) error {
	return c.call(func() { c.edit(amount.Fiat, v, nil) })
}

// EditCrypto sets the crypto amount; fiat is derived at the current price.
func (c *Controller) EditCrypto(v float64) error {
	return c.call(func() { c.edit(amount.Crypto, v, nil) })
}

// EditFiatText parses input text first. Invalid text still makes fiat the
// authoritative field but keeps both amounts; the parse error is returned.
func (c *Controller) EditFiatText(text string) error {
	return c.editText(amount.Fiat, text)
}

// EditCryptoText is the crypto counterpart of EditFiatText.
func (c *Controller) EditCryptoText(text string) error {
	return c.editText(amount.Crypto, text)
}

// Edit applies text to field.
func (c *Controller) Edit(field amount.Field, text string) error {
	return c.editText(field, text)
}

func (c *Controller) editText(field amount.Field, text string) error {
	v, perr := amount.ParseAmount(text)
	if perr != nil {
		v = math.NaN()
	}
	if err := c.call(func() { c.edit(field, v, perr) }); err != nil {
		return err
	}
	return perr
}

func (c *Controller) edit(field amount.Field, v float64, inputErr error) {
	p := c.currentPrice()
	switch field {
	case amount.Fiat:
		c.state = amount.Apply(c.state, amount.EditFiat{Value: v, Price: p})
		c.fiatRev++
		c.fiatDebounce.Set(c.fiatRev)
	case amount.Crypto:
		c.state = amount.Apply(c.state, amount.EditCrypto{Value: v, Price: p})
		c.cryptoRev++
		c.cryptoDebounce.Set(c.cryptoRev)
	}
	c.inputErr = inputErr
	if inputErr != nil {
		c.logger.Debug("Ignoring invalid amount input", "field", field, "error", inputErr)
	}
}

// settle marks a field settled when rev is still its latest edit.
func (c *Controller) settle(field amount.Field, rev uint64) {
	switch field {
	case amount.Fiat:
		if rev != c.fiatRev {
			return
		}
		c.settledFiat = rev
	case amount.Crypto:
		if rev != c.cryptoRev {
			return
		}
		c.settledCrypto = rev
	}
	c.maybeEmit()
}

// SelectCoin switches the asset. Fiat becomes authoritative and crypto is
// re-derived at the new coin's price.
func (c *Controller) SelectCoin(id string) error {
	a, err := c.catalog.Lookup(id)
	if err != nil {
		return err
	}
	return c.call(func() {
		c.coin = a
		c.reset()
	})
}

// SelectCurrency switches the fiat currency, with the same reset as SelectCoin.
func (c *Controller) SelectCurrency(code string) error {
	f, err := c.catalog.ParseFiat(code)
	if err != nil {
		return err
	}
	return c.call(func() {
		c.fiat = f
		c.reset()
	})
}

// SelectPeriod changes the staking period in days.
func (c *Controller) SelectPeriod(days int) error {
	if days < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, days)
	}
	return c.call(func() {
		c.period = days
		c.maybeEmit()
	})
}

func (c *Controller) reset() {
	c.state = amount.Apply(c.state, amount.Reset{Price: c.currentPrice()})
	c.inputErr = nil
	c.maybeEmit()
}

func (c *Controller) onPriceChange(t *price.Table) {
	p, ok := t.Price(c.coin.ID, string(c.fiat))
	c.state = amount.Apply(c.state, amount.PriceChanged{Price: amount.Price{Value: p, OK: ok}})
	c.maybeEmit()
}

func (c *Controller) currentPrice() amount.Price {
	p, ok := c.prices.Price(c.coin.ID, string(c.fiat))
	return amount.Price{Value: p, OK: ok}
}

func (c *Controller) pending() bool {
	return c.settledFiat != c.fiatRev || c.settledCrypto != c.cryptoRev
}

// maybeEmit publishes the current state unless an amount is still settling
// or the same state was already published.
func (c *Controller) maybeEmit() {
	if c.pending() {
		return
	}
	evt := c.event()
	if evt.SameSettledState(c.lastEmitted) {
		return
	}
	c.lastEmitted = evt
	c.emitted++

	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	if err := c.publisher.Emit(ctx, evt); err != nil {
		c.logger.Error("Failed to emit change event", "error", err)
	}
}

func (c *Controller) event() *events.ChangeEvent {
	p := c.currentPrice()
	return &events.ChangeEvent{
		ID:             uuid.New(),
		SessionID:      c.id,
		AmountInFiat:   c.state.AmountInFiat,
		AmountInCrypto: c.state.AmountInCrypto,
		APY:            c.coin.DefaultAPY,
		PeriodDays:     c.period,
		CryptoID:       c.coin.ID,
		CryptoSymbol:   c.coin.Symbol,
		Currency:       string(c.fiat),
		Price:          p.Value,
		PriceAvailable: p.Usable(),
		OccurredAt:     c.now().UTC(),
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() (Snapshot, error) {
	var s Snapshot
	err := c.call(func() {
		p := c.currentPrice()
		s = Snapshot{
			SessionID:      c.id,
			State:          c.state,
			Coin:           c.coin,
			Fiat:           c.fiat,
			PeriodDays:     c.period,
			Price:          p.Value,
			PriceAvailable: p.Usable(),
			Pending:        c.pending(),
			Emitted:        c.emitted,
		}
		if c.inputErr != nil {
			s.InputError = c.inputErr.Error()
		}
		if c.lastEmitted != nil {
			evt := *c.lastEmitted
			s.LastEvent = &evt
		}
	})
	return s, err
}

// Close stops the timers, drops the price subscription and ends the loop.
// Nothing is emitted after Close returns. It is safe to call more than once.
func (c *Controller) Close() {
	c.closing.Do(func() {
		c.fiatDebounce.Stop()
		c.cryptoDebounce.Stop()
		// Blocks until a concurrent Start has subscribed.
		c.starting.Do(func() {})
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		close(c.quit)
		c.logger.Debug("Form session closed")
	})
	<-c.done
}

// Done is closed once the session loop has ended.
func (c *Controller) Done() <-chan struct{} { return c.done }
