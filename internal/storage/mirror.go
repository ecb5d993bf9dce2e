package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Writer is the subset of DB the mirror writes through
type Writer interface {
	InsertResolution(ctx context.Context, audit *ResolutionAudit) error
	InsertFailure(ctx context.Context, failure *ResolutionFailure) error
}

// Mirror copies resolution events into the audit tables. Write failures are
// logged and reported to the bus; they never affect the in-memory flow.
type Mirror struct {
	db  Writer
	log *logrus.Entry
}

// NewMirror creates a mirror writing to db
func NewMirror(db Writer, log *logrus.Logger) *Mirror {
	return &Mirror{db: db, log: log.WithField("component", "audit_mirror")}
}

// Subscribe registers the mirror on bus and returns a function removing
// both registrations
func (m *Mirror) Subscribe(bus *events.Bus) func() {
	offCompleted := bus.Subscribe(events.ResolutionCompleted, m.HandleCompleted)
	offFailed := bus.Subscribe(events.ResolutionFailed, m.HandleFailed)
	return func() {
		offCompleted()
		offFailed()
	}
}

// HandleCompleted mirrors a RESOLUTION_COMPLETED event
func (m *Mirror) HandleCompleted(ctx context.Context, e events.Event) error {
	if e.Resolution == nil {
		return nil
	}

	audit, err := NewResolutionAudit(*e.Resolution)
	if err != nil {
		return fmt.Errorf("build audit row: %w", err)
	}

	start := time.Now()
	err = m.db.InsertResolution(ctx, audit)
	metrics.RecordAuditWrite(time.Since(start), err)
	if err != nil {
		m.log.WithError(err).WithField("market_id", e.MarketID).Error("Failed to mirror resolution")
		return fmt.Errorf("insert resolution audit: %w", err)
	}
	return nil
}

// HandleFailed mirrors a RESOLUTION_FAILED event
func (m *Mirror) HandleFailed(ctx context.Context, e events.Event) error {
	start := time.Now()
	err := m.db.InsertFailure(ctx, &ResolutionFailure{
		MarketID: e.MarketID,
		Error:    e.Error,
		FailedTS: e.Timestamp.Unix(),
	})
	metrics.RecordAuditWrite(time.Since(start), err)
	if err != nil {
		m.log.WithError(err).WithField("market_id", e.MarketID).Error("Failed to mirror resolution failure")
		return fmt.Errorf("insert resolution failure: %w", err)
	}
	return nil
}
