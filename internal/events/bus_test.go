package events

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/sirupsen/logrus"
)

func newTestBus() *Bus {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewBus(log)
}

func TestBusDeliversToSubscribersOfType(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	var started, failed atomic.Int32
	bus.Subscribe(ResolutionStarted, func(ctx context.Context, e Event) error {
		started.Add(1)
		return nil
	})
	bus.Subscribe(ResolutionStarted, func(ctx context.Context, e Event) error {
		started.Add(1)
		return nil
	})
	bus.Subscribe(ResolutionFailed, func(ctx context.Context, e Event) error {
		failed.Add(1)
		return nil
	})

	bus.Emit(ctx, NewResolutionStarted("m-1"))

	if got := started.Load(); got != 2 {
		t.Errorf("started deliveries = %d, want 2", got)
	}
	if got := failed.Load(); got != 0 {
		t.Errorf("failed deliveries = %d, want 0", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	var first, second atomic.Int32
	unsubscribe := bus.Subscribe(MarketClosed, func(ctx context.Context, e Event) error {
		first.Add(1)
		return nil
	})
	bus.Subscribe(MarketClosed, func(ctx context.Context, e Event) error {
		second.Add(1)
		return nil
	})

	bus.Emit(ctx, NewMarketClosed(market.Market{ID: "m-1"}))
	unsubscribe()
	unsubscribe()
	bus.Emit(ctx, NewMarketClosed(market.Market{ID: "m-1"}))

	if got := first.Load(); got != 1 {
		t.Errorf("unsubscribed handler deliveries = %d, want 1", got)
	}
	if got := second.Load(); got != 2 {
		t.Errorf("remaining handler deliveries = %d, want 2", got)
	}
}

func TestBusHandlerFailureDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	var delivered atomic.Int32
	bus.Subscribe(ResolutionFailed, func(ctx context.Context, e Event) error {
		return errors.New("handler error")
	})
	bus.Subscribe(ResolutionFailed, func(ctx context.Context, e Event) error {
		panic("handler panic")
	})
	bus.Subscribe(ResolutionFailed, func(ctx context.Context, e Event) error {
		delivered.Add(1)
		return nil
	})

	bus.Emit(ctx, NewResolutionFailed("m-1", "boom"))

	if got := delivered.Load(); got != 1 {
		t.Errorf("healthy handler deliveries = %d, want 1", got)
	}
}

func TestBusEmitWaitsForHandlers(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	release := make(chan struct{})
	var done atomic.Bool
	bus.Subscribe(ResolutionCompleted, func(ctx context.Context, e Event) error {
		<-release
		done.Store(true)
		return nil
	})

	go close(release)
	bus.Emit(ctx, NewResolutionCompleted(market.Record{Submission: market.Submission{MarketID: "m-1"}}))

	if !done.Load() {
		t.Error("Emit returned before handler finished")
	}
}

func TestBusClear(t *testing.T) {
	bus := newTestBus()
	ctx := context.Background()

	var delivered atomic.Int32
	bus.Subscribe(ResolutionStarted, func(ctx context.Context, e Event) error {
		delivered.Add(1)
		return nil
	})
	bus.Clear()
	bus.Emit(ctx, NewResolutionStarted("m-1"))

	if got := delivered.Load(); got != 0 {
		t.Errorf("deliveries after Clear = %d, want 0", got)
	}
}

func TestEventConstructors(t *testing.T) {
	rec := market.Record{Submission: market.Submission{MarketID: "m-2"}, ID: "res-1"}

	tests := []struct {
		name     string
		event    Event
		wantType Type
		wantID   string
	}{
		{"closed", NewMarketClosed(market.Market{ID: "m-1"}), MarketClosed, "m-1"},
		{"started", NewResolutionStarted("m-1"), ResolutionStarted, "m-1"},
		{"completed", NewResolutionCompleted(rec), ResolutionCompleted, "m-2"},
		{"failed", NewResolutionFailed("m-3", "boom"), ResolutionFailed, "m-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", tt.event.Type, tt.wantType)
			}
			if tt.event.MarketID != tt.wantID {
				t.Errorf("MarketID = %s, want %s", tt.event.MarketID, tt.wantID)
			}
			if tt.event.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
		})
	}
}
