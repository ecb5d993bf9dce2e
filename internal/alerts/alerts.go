package alerts

import (
	"context"
	"time"
)

// Kind identifies what a notification reports
type Kind string

const (
	KindResolved Kind = "RESOLVED"
	KindFailed   Kind = "FAILED"
)

// Notification contains everything a sender needs to report one resolution
// attempt outcome
type Notification struct {
	Kind        Kind
	MarketID    string
	Question    string
	Outcome     string
	Confidence  float64
	Reasoning   string
	SourceURLs  []string
	ModelUsed   string
	RecordID    string
	Error       string
	Timestamp   time.Time
	Environment string
}

// Sender defines the interface for notification senders
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}
