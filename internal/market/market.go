package market

import (
	"fmt"
	"strings"
	"time"
)

// Status is a market's position in the resolution lifecycle
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusClosed    Status = "CLOSED"
	StatusResolving Status = "RESOLVING"
	StatusResolved  Status = "RESOLVED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusClosed, StatusResolving, StatusResolved:
		return true
	}
	return false
}

// Outcome is a resolution decision
type Outcome string

const (
	OutcomeYes     Outcome = "YES"
	OutcomeNo      Outcome = "NO"
	OutcomeUnknown Outcome = "UNKNOWN"
	OutcomeEarly   Outcome = "EARLY"
)

// AllOutcomes lists every outcome in display order
var AllOutcomes = []Outcome{OutcomeYes, OutcomeNo, OutcomeUnknown, OutcomeEarly}

// Valid reports whether o is a known outcome
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeYes, OutcomeNo, OutcomeUnknown, OutcomeEarly:
		return true
	}
	return false
}

// ParseOutcome normalizes and validates an outcome string
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToUpper(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("invalid outcome %q", s)
	}
	return o, nil
}

// Rules describes how a market must be resolved
type Rules struct {
	Description        string   `json:"description"`
	ResolutionCriteria string   `json:"resolutionCriteria"`
	PrimarySources     []string `json:"primarySources"`
	EdgeCases          []string `json:"edgeCases"`
}

// Market is a single prediction question awaiting or holding a resolution
type Market struct {
	ID                 string         `json:"id"`
	Question           string         `json:"question"`
	Description        string         `json:"description"`
	Category           string         `json:"category"`
	CreatedAt          time.Time      `json:"createdAt"`
	CloseTime          time.Time      `json:"closeTime"`
	ResolutionDeadline time.Time      `json:"resolutionDeadline"`
	Status             Status         `json:"status"`
	Rules              Rules          `json:"rules"`
	AllowedOutcomes    []Outcome      `json:"allowedOutcomes"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Validate checks that the market carries everything the resolver needs
func (m *Market) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(m.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("invalid status %q", m.Status)
	}
	if m.CreatedAt.IsZero() || m.CloseTime.IsZero() || m.ResolutionDeadline.IsZero() {
		return fmt.Errorf("createdAt, closeTime and resolutionDeadline are required")
	}
	if len(m.AllowedOutcomes) == 0 {
		return fmt.Errorf("allowedOutcomes must not be empty")
	}
	for _, o := range m.AllowedOutcomes {
		if !o.Valid() {
			return fmt.Errorf("invalid allowed outcome %q", o)
		}
	}
	return nil
}

// Clone returns a deep copy so stored markets are never aliased
func (m Market) Clone() Market {
	out := m
	out.Rules.PrimarySources = append([]string(nil), m.Rules.PrimarySources...)
	out.Rules.EdgeCases = append([]string(nil), m.Rules.EdgeCases...)
	out.AllowedOutcomes = append([]Outcome(nil), m.AllowedOutcomes...)
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
