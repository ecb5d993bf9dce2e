package resolution

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/liamashdown/resolvewatch/internal/resolver"
	"github.com/sirupsen/logrus"
)

// ExternalModel is recorded as ModelUsed for externally submitted resolutions
const ExternalModel = "external"

// MarketProvider is the slice of the market registry the service needs
type MarketProvider interface {
	GetMarket(ctx context.Context, id string) (*market.Market, error)
	UpdateMarketStatus(ctx context.Context, id string, status market.Status) error
}

// Service drives a single market through one resolution attempt at a time
type Service struct {
	threshold   float64
	maxAttempts int
	resolver    resolver.Resolver
	markets     MarketProvider
	store       *Store
	bus         *events.Bus
	log         *logrus.Entry

	mu       sync.Mutex
	inFlight map[string]struct{}
	failures map[string]int
}

// New creates a resolution service with its own store
func New(
	cfg *config.Config,
	r resolver.Resolver,
	markets MarketProvider,
	bus *events.Bus,
	log *logrus.Logger,
) *Service {
	return &Service{
		threshold:   cfg.ConfidenceThreshold,
		maxAttempts: cfg.ResolutionMaxAttempts,
		resolver:    r,
		markets:     markets,
		store:       NewStore(bus),
		bus:         bus,
		log:         log.WithField("component", "resolution_service"),
		inFlight:    make(map[string]struct{}),
		failures:    make(map[string]int),
	}
}

// Store returns the service's resolution store
func (s *Service) Store() *Store {
	return s.store
}

// IsProcessing reports whether marketID has a resolution attempt in flight
func (s *Service) IsProcessing(marketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[marketID]
	return ok
}

// IsResolved reports whether marketID already has a stored resolution
func (s *Service) IsResolved(marketID string) bool {
	return s.store.Exists(marketID)
}

// Failures returns how many resolution attempts for marketID have failed
func (s *Service) Failures(marketID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[marketID]
}

// ResolveMarket makes one resolution attempt for marketID. Already resolved
// or in-flight markets are a no-op. Resolver failures roll the market back
// to CLOSED and are returned.
func (s *Service) ResolveMarket(ctx context.Context, marketID string) error {
	logger := s.log.WithField("market_id", marketID)

	if s.IsProcessing(marketID) {
		logger.Warn("Market already being processed")
		return nil
	}

	m, err := s.markets.GetMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("get market: %w", err)
	}
	if m == nil {
		return market.NewResolutionError(market.ErrMarketNotFound, marketID, nil)
	}

	if s.store.Exists(marketID) {
		logger.Warn("Market already resolved")
		return nil
	}

	if s.maxAttempts > 0 && s.Failures(marketID) >= s.maxAttempts {
		logger.WithField("max_attempts", s.maxAttempts).Warn("Market exceeded resolution attempts, skipping")
		return market.NewResolutionError(market.ErrAlreadyFailed, marketID, nil)
	}

	if !s.acquire(marketID) {
		logger.Warn("Market already being processed")
		return nil
	}
	defer s.release(marketID)

	// A concurrent attempt may have finished between the check above and acquire
	if s.store.Exists(marketID) {
		logger.Warn("Market already resolved")
		return nil
	}

	s.bus.Emit(ctx, events.NewResolutionStarted(marketID))
	s.setStatus(ctx, marketID, market.StatusResolving)

	start := time.Now()
	result, err := s.resolver.Resolve(ctx, *m)
	if err == nil && result == nil {
		err = market.NewResolutionError(market.ErrResolverNoDecision, marketID, nil)
	}
	if err != nil {
		return s.fail(ctx, marketID, err)
	}
	elapsed := time.Since(start)

	sub := result.Submission
	sub.MarketID = marketID
	sub = s.applyConfidenceThreshold(sub)

	rec := s.store.Save(ctx, sub, market.Metadata{
		ProcessingTimeMs: elapsed.Milliseconds(),
		ModelUsed:        result.ModelUsed,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	})
	s.setStatus(ctx, marketID, market.StatusResolved)

	metrics.RecordResolution(string(rec.Outcome), "ai", elapsed)
	logger.WithFields(logrus.Fields{
		"outcome":            rec.Outcome,
		"confidence":         rec.Confidence,
		"processing_time_ms": rec.ProcessingTimeMs,
		"record_id":          rec.ID,
	}).Info("Market resolved successfully")

	return nil
}

// SubmitExternal persists a resolution computed outside the service and
// marks the market RESOLVED. The confidence threshold is not applied.
func (s *Service) SubmitExternal(ctx context.Context, sub market.Submission) (market.Record, error) {
	m, err := s.markets.GetMarket(ctx, sub.MarketID)
	if err != nil {
		return market.Record{}, fmt.Errorf("get market: %w", err)
	}
	if m == nil {
		return market.Record{}, market.NewResolutionError(market.ErrMarketNotFound, sub.MarketID, nil)
	}

	if !s.acquire(sub.MarketID) {
		return market.Record{}, market.NewResolutionError(market.ErrAlreadyProcessing, sub.MarketID, nil)
	}
	defer s.release(sub.MarketID)

	if s.store.Exists(sub.MarketID) {
		return market.Record{}, market.NewResolutionError(market.ErrAlreadyResolved, sub.MarketID, nil)
	}

	rec := s.store.Save(ctx, sub, market.Metadata{ModelUsed: ExternalModel})
	s.setStatus(ctx, sub.MarketID, market.StatusResolved)

	metrics.RecordResolution(string(rec.Outcome), "external", 0)
	s.log.WithFields(logrus.Fields{
		"market_id": sub.MarketID,
		"outcome":   sub.Outcome,
	}).Info("External resolution submitted")

	return rec, nil
}

func (s *Service) fail(ctx context.Context, marketID string, err error) error {
	s.mu.Lock()
	s.failures[marketID]++
	attempts := s.failures[marketID]
	s.mu.Unlock()

	code := market.CodeName(err)
	metrics.RecordResolutionFailure(code)
	s.log.WithError(err).WithFields(logrus.Fields{
		"market_id": marketID,
		"code":      code,
		"attempts":  attempts,
	}).Error("Resolution failed")

	s.bus.Emit(ctx, events.NewResolutionFailed(marketID, err.Error()))
	s.setStatus(ctx, marketID, market.StatusClosed)

	return err
}

// applyConfidenceThreshold forces low-confidence decisions to UNKNOWN. The
// original reasoning is kept in full after an audit note.
func (s *Service) applyConfidenceThreshold(sub market.Submission) market.Submission {
	if sub.Confidence >= s.threshold || sub.Outcome == market.OutcomeUnknown {
		return sub
	}

	original := sub.Outcome
	s.log.WithFields(logrus.Fields{
		"market_id":        sub.MarketID,
		"original_outcome": original,
		"confidence":       sub.Confidence,
		"threshold":        s.threshold,
	}).Warn("Confidence below threshold, converting to UNKNOWN")
	metrics.RecordConfidenceOverride(string(original))

	sub.Outcome = market.OutcomeUnknown
	sub.Reasoning = fmt.Sprintf(
		"[AUTO-CONVERTED: Original outcome was %s with confidence %s, below threshold of %s]\n\n%s",
		original,
		formatFloat(sub.Confidence),
		formatFloat(s.threshold),
		sub.Reasoning,
	)
	return sub
}

func (s *Service) acquire(marketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[marketID]; ok {
		return false
	}
	s.inFlight[marketID] = struct{}{}
	metrics.SetInFlight(len(s.inFlight))
	return true
}

func (s *Service) release(marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, marketID)
	metrics.SetInFlight(len(s.inFlight))
}

func (s *Service) setStatus(ctx context.Context, marketID string, status market.Status) {
	if err := s.markets.UpdateMarketStatus(ctx, marketID, status); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"market_id": marketID,
			"status":    status,
		}).Error("Failed to update market status")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
