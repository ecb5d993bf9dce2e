package alerts

import (
	"context"

	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

// MarketLookup resolves a market id to its question for notifications
type MarketLookup interface {
	GetMarket(ctx context.Context, id string) (*market.Market, error)
}

// Notifier turns resolution events into notifications
type Notifier struct {
	sender      Sender
	markets     MarketLookup
	environment string
	log         *logrus.Entry
}

// NewNotifier creates a notifier. markets may be nil, in which case
// notifications carry no question text.
func NewNotifier(sender Sender, markets MarketLookup, environment string, log *logrus.Logger) *Notifier {
	return &Notifier{
		sender:      sender,
		markets:     markets,
		environment: environment,
		log:         log.WithField("component", "notifier"),
	}
}

// Subscribe registers the notifier on bus and returns a function removing
// both registrations
func (n *Notifier) Subscribe(bus *events.Bus) func() {
	offCompleted := bus.Subscribe(events.ResolutionCompleted, n.Handle)
	offFailed := bus.Subscribe(events.ResolutionFailed, n.Handle)
	return func() {
		offCompleted()
		offFailed()
	}
}

// Handle sends a notification for a completed or failed resolution. Send
// failures are returned so the bus logs them.
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	notification := n.build(ctx, e)
	if notification == nil {
		return nil
	}

	err := n.sender.Send(ctx, notification)
	metrics.RecordNotification(string(notification.Kind), err)
	if err != nil {
		n.log.WithError(err).WithField("market_id", e.MarketID).Error("Failed to send notification")
	}
	return err
}

func (n *Notifier) build(ctx context.Context, e events.Event) *Notification {
	out := &Notification{
		MarketID:    e.MarketID,
		Timestamp:   e.Timestamp,
		Environment: n.environment,
	}

	switch e.Type {
	case events.ResolutionCompleted:
		if e.Resolution == nil {
			return nil
		}
		rec := e.Resolution
		out.Kind = KindResolved
		out.Outcome = string(rec.Outcome)
		out.Confidence = rec.Confidence
		out.Reasoning = rec.Reasoning
		out.ModelUsed = rec.ModelUsed
		out.RecordID = rec.ID
		for _, src := range rec.Sources {
			if src.URL != "" {
				out.SourceURLs = append(out.SourceURLs, src.URL)
			}
		}
	case events.ResolutionFailed:
		out.Kind = KindFailed
		out.Error = e.Error
	default:
		return nil
	}

	if n.markets != nil {
		if m, err := n.markets.GetMarket(ctx, e.MarketID); err == nil && m != nil {
			out.Question = m.Question
		}
	}
	return out
}
