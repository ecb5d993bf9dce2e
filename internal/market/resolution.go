package market

import (
	"fmt"
	"strings"
	"time"
)

// Source is a piece of evidence cited by a resolution
type Source struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Relevance string `json:"relevance"`
}

// Submission is a proposed resolution, as produced by a resolver or
// submitted externally
type Submission struct {
	MarketID   string    `json:"marketId"`
	Outcome    Outcome   `json:"outcome"`
	Reasoning  string    `json:"reasoning"`
	Sources    []Source  `json:"sources"`
	Confidence float64   `json:"confidence"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// Validate checks submission fields
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.MarketID) == "" {
		return fmt.Errorf("marketId is required")
	}
	if !s.Outcome.Valid() {
		return fmt.Errorf("invalid outcome %q", s.Outcome)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %.4f out of range [0,1]", s.Confidence)
	}
	if s.ResolvedAt.IsZero() {
		return fmt.Errorf("resolvedAt is required")
	}
	return nil
}

// Metadata describes how a submission was produced
type Metadata struct {
	ProcessingTimeMs int64
	ModelUsed        string
	PromptTokens     *int64
	CompletionTokens *int64
}

// Record is a persisted, final resolution. There is at most one per market.
type Record struct {
	Submission
	ID               string `json:"id"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	ModelUsed        string `json:"modelUsed"`
	PromptTokens     *int64 `json:"promptTokens,omitempty"`
	CompletionTokens *int64 `json:"completionTokens,omitempty"`
}
