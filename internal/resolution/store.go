package resolution

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/market"
)

// Store holds at most one resolution record per market. It is the single
// source of truth for whether a market has been resolved.
type Store struct {
	mu          sync.RWMutex
	resolutions map[string]market.Record
	bus         *events.Bus
}

// NewStore creates an empty store that announces saves on bus
func NewStore(bus *events.Bus) *Store {
	return &Store{
		resolutions: make(map[string]market.Record),
		bus:         bus,
	}
}

// Save records submission and emits RESOLUTION_COMPLETED before returning.
// Callers must check Exists first; Save overwrites.
func (s *Store) Save(ctx context.Context, sub market.Submission, meta market.Metadata) market.Record {
	rec := market.Record{
		Submission:       sub,
		ID:               newRecordID(sub.MarketID),
		ProcessingTimeMs: meta.ProcessingTimeMs,
		ModelUsed:        meta.ModelUsed,
		PromptTokens:     meta.PromptTokens,
		CompletionTokens: meta.CompletionTokens,
	}
	rec.Sources = append([]market.Source(nil), sub.Sources...)

	s.mu.Lock()
	s.resolutions[sub.MarketID] = rec
	s.mu.Unlock()

	s.bus.Emit(ctx, events.NewResolutionCompleted(rec))
	return rec
}

// Get returns the record for marketID, or nil
func (s *Store) Get(marketID string) *market.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.resolutions[marketID]
	if !ok {
		return nil
	}
	return &rec
}

// All returns a snapshot of every record, oldest first
func (s *Store) All() []market.Record {
	s.mu.RLock()
	out := make([]market.Record, 0, len(s.resolutions))
	for _, rec := range s.resolutions {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ResolvedAt.Before(out[j].ResolvedAt)
	})
	return out
}

// Exists reports whether marketID has a record
func (s *Store) Exists(marketID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.resolutions[marketID]
	return ok
}

// Count returns the number of records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resolutions)
}

func newRecordID(marketID string) string {
	return "res-" + marketID + "-" + uuid.NewString()
}
