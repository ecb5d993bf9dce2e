package market

import (
	"errors"
	"fmt"
)

// Error codes carried by ResolutionError
var (
	ErrMarketNotFound     = errors.New("market not found")
	ErrAlreadyResolved    = errors.New("market already resolved")
	ErrAlreadyProcessing  = errors.New("market resolution already in progress")
	ErrAlreadyFailed      = errors.New("market exceeded resolution attempts")
	ErrResolverNoDecision = errors.New("resolver produced no decision")
	ErrResolverUpstream   = errors.New("upstream call failed")
	ErrResolverMalformed  = errors.New("malformed decision payload")
)

// ResolutionError ties a failure code to a market and an optional cause
type ResolutionError struct {
	Code     error
	MarketID string
	Err      error
}

// NewResolutionError builds a ResolutionError. cause may be nil.
func NewResolutionError(code error, marketID string, cause error) *ResolutionError {
	return &ResolutionError{Code: code, MarketID: marketID, Err: cause}
}

func (e *ResolutionError) Error() string {
	msg := e.Code.Error()
	if e.MarketID != "" {
		msg = fmt.Sprintf("%s (market %s)", msg, e.MarketID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches against the error code so callers can use errors.Is(err, ErrMarketNotFound)
func (e *ResolutionError) Is(target error) bool {
	return e.Code == target
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// CodeName returns a short machine-readable name for err's code, or
// "UNKNOWN" when err carries none.
func CodeName(err error) string {
	switch {
	case errors.Is(err, ErrMarketNotFound):
		return "MARKET_NOT_FOUND"
	case errors.Is(err, ErrAlreadyResolved):
		return "ALREADY_RESOLVED"
	case errors.Is(err, ErrAlreadyProcessing):
		return "ALREADY_PROCESSING"
	case errors.Is(err, ErrAlreadyFailed):
		return "ALREADY_FAILED"
	case errors.Is(err, ErrResolverNoDecision):
		return "RESOLVER_NO_DECISION"
	case errors.Is(err, ErrResolverUpstream):
		return "RESOLVER_UPSTREAM_ERROR"
	case errors.Is(err, ErrResolverMalformed):
		return "RESOLVER_MALFORMED_RESPONSE"
	}
	return "UNKNOWN"
}
