package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/stakesim/pkg/eventbus"
	"github.com/amirasaad/stakesim/pkg/events"
)

// MemoryEventBus dispatches synchronously on the emitting goroutine.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	recording bool
	published []events.Event
}

// MemoryOption configures a MemoryEventBus.
type MemoryOption func(*MemoryEventBus)

// WithRecording keeps every emitted event for Published. Meant for tests:
// the list is never trimmed.
func WithRecording() MemoryOption {
	return func(b *MemoryEventBus) { b.recording = true }
}

// NewWithMemory creates a new in-memory event bus for event-driven communication.
func NewWithMemory(logger *slog.Logger, opts ...MemoryOption) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MemoryEventBus{
		handlers:  make(map[string][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]events.Event, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type. The
// first handler error is returned after every handler ran.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type()]...)
	if b.recording {
		b.published = append(b.published, event)
	}
	b.mu.Unlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("failed to process event", "type", event.Type(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ClearPublished clears the list of published events. This is useful for testing.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]events.Event, 0)
}

// Published returns a copy of the events emitted so far. It is always empty
// unless the bus was built WithRecording.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type envelopeCtx struct {
	ctx   context.Context
	event events.Event
}

// MemoryAsyncEventBus queues events and runs handlers on a worker goroutine,
// so Emit never blocks on a slow handler.
type MemoryAsyncEventBus struct {
	handlers map[string][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan envelopeCtx
	done     chan struct{}
	closing  sync.Once
	log      *slog.Logger
}

// NewWithMemoryAsync creates a queued in-memory event bus.
func NewWithMemoryAsync(logger *slog.Logger) *MemoryAsyncEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &MemoryAsyncEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		eventCh:  make(chan envelopeCtx, 100),
		done:     make(chan struct{}),
		log:      logger.With("event-bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event events.Event) error {
	select {
	case <-b.done:
		return context.Canceled
	default:
	}
	select {
	case b.eventCh <- envelopeCtx{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. Queued events are still handled.
func (b *MemoryAsyncEventBus) Close() {
	b.closing.Do(func() { close(b.done) })
}

func (b *MemoryAsyncEventBus) process() {
	for {
		select {
		case w := <-b.eventCh:
			b.dispatch(w)
		case <-b.done:
			for {
				select {
				case w := <-b.eventCh:
					b.dispatch(w)
				default:
					return
				}
			}
		}
	}
}

func (b *MemoryAsyncEventBus) dispatch(w envelopeCtx) {
	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[w.event.Type()]...)
	b.mu.RUnlock()
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("panic recovered in event handler", "type", w.event.Type(), "panic", r)
				}
			}()
			if err := handler(w.ctx, w.event); err != nil {
				b.log.Error("failed to process event", "type", w.event.Type(), "error", err)
			}
		}()
	}
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
