package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/sirupsen/logrus"
)

// Registry is the in-memory market registry. Stored markets are only ever
// replaced wholesale; callers receive copies.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]market.Market
	now     func() time.Time
	log     *logrus.Entry
}

// New creates an empty registry
func New(log *logrus.Logger) *Registry {
	return &Registry{
		markets: make(map[string]market.Market),
		now:     time.Now,
		log:     log.WithField("component", "registry"),
	}
}

// NewWithDemoMarkets creates a registry seeded with the demo markets
func NewWithDemoMarkets(log *logrus.Logger) *Registry {
	r := New(log)
	for _, m := range DemoMarkets() {
		r.AddMarket(m)
	}
	return r
}

// SetClock overrides the time source used by GetClosedMarkets
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// GetMarket returns the market with the given id, or nil if unknown
func (r *Registry) GetMarket(ctx context.Context, id string) (*market.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[id]
	if !ok {
		return nil, nil
	}
	c := m.Clone()
	return &c, nil
}

// GetClosedMarkets returns ACTIVE markets whose close time has passed
func (r *Registry) GetClosedMarkets(ctx context.Context) ([]market.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	return r.filter(func(m market.Market) bool {
		return m.Status == market.StatusActive && !m.CloseTime.After(now)
	}), nil
}

// GetUnresolvedMarkets returns markets that are ACTIVE or CLOSED
func (r *Registry) GetUnresolvedMarkets(ctx context.Context) ([]market.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(m market.Market) bool {
		return m.Status == market.StatusActive || m.Status == market.StatusClosed
	}), nil
}

// UpdateMarketStatus replaces the stored market with a copy carrying the new
// status. Unknown ids are ignored. RESOLVED is terminal.
func (r *Registry) UpdateMarketStatus(ctx context.Context, id string, status market.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.markets[id]
	if !ok {
		return nil
	}
	if m.Status == market.StatusResolved && status != market.StatusResolved {
		r.log.WithFields(logrus.Fields{
			"market_id": id,
			"status":    status,
		}).Warn("Ignoring status change on resolved market")
		return nil
	}

	updated := m.Clone()
	updated.Status = status
	r.markets[id] = updated
	return nil
}

// AddMarket inserts or replaces a market by id
func (r *Registry) AddMarket(m market.Market) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets[m.ID] = m.Clone()
}

// AllMarkets returns every market ordered by id
func (r *Registry) AllMarkets() []market.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(market.Market) bool { return true })
}

// Count returns the number of markets held
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markets)
}

// filter must be called with the lock held
func (r *Registry) filter(keep func(market.Market) bool) []market.Market {
	out := make([]market.Market, 0, len(r.markets))
	for _, m := range r.markets {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
