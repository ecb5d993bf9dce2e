package alerts

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes notifications to the logger
type LogSender struct {
	log *logrus.Entry
}

// NewLogSender creates a new log sender
func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log.WithField("component", "alerts")}
}

// Send logs the notification
func (s *LogSender) Send(ctx context.Context, n *Notification) error {
	entry := s.log.WithFields(logrus.Fields{
		"kind":      n.Kind,
		"market_id": n.MarketID,
		"question":  n.Question,
	})

	if n.Kind == KindFailed {
		entry.WithField("error", n.Error).Warn("Resolution failed")
		return nil
	}

	entry.WithFields(logrus.Fields{
		"outcome":    n.Outcome,
		"confidence": n.Confidence,
		"model":      n.ModelUsed,
		"record_id":  n.RecordID,
	}).Info("Market resolved")
	return nil
}
