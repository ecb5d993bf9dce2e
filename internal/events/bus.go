package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Handler consumes an event. A returned error is logged by the bus and never
// reaches the emitter.
type Handler func(ctx context.Context, event Event) error

// Bus is the process-wide publish/subscribe fabric for lifecycle events.
// Create one in main and pass it to every component that publishes or
// subscribes.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type]map[uint64]Handler
	nextID   uint64
	log      *logrus.Entry
}

// NewBus creates an empty bus
func NewBus(log *logrus.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type]map[uint64]Handler),
		log:      log.WithField("component", "event_bus"),
	}
}

// Subscribe registers handler for events of the given type. The returned
// function removes the registration; calling it more than once is harmless.
func (b *Bus) Subscribe(eventType Type, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.handlers[eventType][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
}

// Emit delivers event to every handler subscribed to its type and returns
// once all of them have finished. Handlers run concurrently.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	registered := b.handlers[event.Type]
	handlers := make([]Handler, 0, len(registered))
	for _, h := range registered {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	var g errgroup.Group
	for _, h := range handlers {
		h := h
		g.Go(func() error {
			if err := b.invoke(ctx, h, event); err != nil {
				metrics.RecordEventHandlerError(string(event.Type))
				b.log.WithError(err).WithFields(logrus.Fields{
					"event_type": event.Type,
					"market_id":  event.MarketID,
				}).Error("Event handler failed")
			}
			// Never abort sibling handlers
			return nil
		})
	}
	_ = g.Wait()
}

// Clear removes every subscription
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Type]map[uint64]Handler)
}

func (b *Bus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}
