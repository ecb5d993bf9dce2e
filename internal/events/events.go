package events

import (
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
)

// Type identifies a lifecycle notification
type Type string

const (
	MarketClosed        Type = "MARKET_CLOSED"
	ResolutionStarted   Type = "RESOLUTION_STARTED"
	ResolutionCompleted Type = "RESOLUTION_COMPLETED"
	ResolutionFailed    Type = "RESOLUTION_FAILED"
)

// Event is a lifecycle notification. Which payload field is set depends on
// Type: Market for MarketClosed, Resolution for ResolutionCompleted, Error
// for ResolutionFailed. MarketID is always set.
type Event struct {
	Type       Type
	Timestamp  time.Time
	MarketID   string
	Market     *market.Market
	Resolution *market.Record
	Error      string
}

// NewMarketClosed builds a MARKET_CLOSED event
func NewMarketClosed(m market.Market) Event {
	return Event{Type: MarketClosed, Timestamp: time.Now().UTC(), MarketID: m.ID, Market: &m}
}

// NewResolutionStarted builds a RESOLUTION_STARTED event
func NewResolutionStarted(marketID string) Event {
	return Event{Type: ResolutionStarted, Timestamp: time.Now().UTC(), MarketID: marketID}
}

// NewResolutionCompleted builds a RESOLUTION_COMPLETED event
func NewResolutionCompleted(rec market.Record) Event {
	return Event{Type: ResolutionCompleted, Timestamp: time.Now().UTC(), MarketID: rec.MarketID, Resolution: &rec}
}

// NewResolutionFailed builds a RESOLUTION_FAILED event
func NewResolutionFailed(marketID, errMsg string) Event {
	return Event{Type: ResolutionFailed, Timestamp: time.Now().UTC(), MarketID: marketID, Error: errMsg}
}
