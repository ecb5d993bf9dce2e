package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

// MarketSource lists markets whose trading window has ended
type MarketSource interface {
	GetClosedMarkets(ctx context.Context) ([]market.Market, error)
}

// Resolver is the part of the resolution service the scheduler drives
type Resolver interface {
	ResolveMarket(ctx context.Context, marketID string) error
	IsProcessing(marketID string) bool
	IsResolved(marketID string) bool
}

// Status is a point-in-time view of the scheduler
type Status struct {
	Running         bool       `json:"running"`
	IntervalMs      int64      `json:"intervalMs"`
	LastCheckTime   *time.Time `json:"lastCheckTime"`
	ChecksPerformed int64      `json:"checksPerformed"`
}

// Scheduler periodically looks for closed markets and launches a resolution
// attempt for each one that is neither resolved nor in flight
type Scheduler struct {
	interval time.Duration
	markets  MarketSource
	resolver Resolver
	bus      *events.Bus
	log      *logrus.Entry

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	done            chan struct{}
	lastCheck       time.Time
	checksPerformed int64
}

// New creates a stopped scheduler
func New(interval time.Duration, markets MarketSource, resolver Resolver, bus *events.Bus, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		markets:  markets,
		resolver: resolver,
		bus:      bus,
		log:      log.WithField("component", "scheduler"),
	}
}

// Start runs a check immediately and then once per interval until Stop is
// called or ctx is done. Resolution attempts inherit ctx, not the loop's
// lifetime, so stopping the scheduler does not abort them.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("Scheduler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.log.WithField("interval_ms", s.interval.Milliseconds()).Info("Starting scheduler")

	go s.loop(loopCtx, ctx, done)
}

// Stop halts the loop and waits for it to exit. In-flight resolutions keep
// running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("Scheduler stopped")
}

// Status returns the current scheduler status
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:         s.running,
		IntervalMs:      s.interval.Milliseconds(),
		ChecksPerformed: s.checksPerformed,
	}
	if !s.lastCheck.IsZero() {
		t := s.lastCheck
		st.LastCheckTime = &t
	}
	return st
}

// CheckNow runs one check cycle and returns the ids it launched resolution
// attempts for. The attempts themselves run in the background.
func (s *Scheduler) CheckNow(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.lastCheck = time.Now().UTC()
	s.checksPerformed++
	s.mu.Unlock()

	closed, err := s.markets.GetClosedMarkets(ctx)
	if err != nil {
		metrics.RecordSchedulerCheck(0, err)
		return nil, err
	}

	var triggered []string
	for _, m := range closed {
		if s.resolver.IsResolved(m.ID) || s.resolver.IsProcessing(m.ID) {
			continue
		}

		s.log.WithFields(logrus.Fields{
			"market_id": m.ID,
			"question":  m.Question,
		}).Info("Market closed, triggering resolution")

		s.bus.Emit(ctx, events.NewMarketClosed(m))
		triggered = append(triggered, m.ID)

		go s.resolve(ctx, m.ID)
	}

	metrics.RecordSchedulerCheck(len(triggered), nil)
	if len(triggered) > 0 {
		s.log.WithField("count", len(triggered)).Info("Resolution attempts launched")
	}
	return triggered, nil
}

func (s *Scheduler) loop(loopCtx, resolveCtx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
		}
		s.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.check(resolveCtx)

	for {
		select {
		case <-ticker.C:
			s.check(resolveCtx)
		case <-loopCtx.Done():
			return
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	if _, err := s.CheckNow(ctx); err != nil {
		s.log.WithError(err).Error("Error checking for closed markets")
	}
}

func (s *Scheduler) resolve(ctx context.Context, marketID string) {
	if err := s.resolver.ResolveMarket(ctx, marketID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"market_id": marketID,
			"code":      market.CodeName(err),
		}).Error("Resolution attempt failed")
	}
}
