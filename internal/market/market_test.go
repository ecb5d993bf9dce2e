package market

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func validMarket() Market {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return Market{
		ID:                 "m-1",
		Question:           "Will it rain?",
		CreatedAt:          now,
		CloseTime:          now.Add(24 * time.Hour),
		ResolutionDeadline: now.Add(48 * time.Hour),
		Status:             StatusActive,
		Rules: Rules{
			PrimarySources: []string{"https://weather.gov"},
			EdgeCases:      []string{"drizzle counts"},
		},
		AllowedOutcomes: []Outcome{OutcomeYes, OutcomeNo},
	}
}

func TestMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Market)
		wantErr bool
	}{
		{"valid", func(m *Market) {}, false},
		{"missing id", func(m *Market) { m.ID = " " }, true},
		{"missing question", func(m *Market) { m.Question = "" }, true},
		{"bad status", func(m *Market) { m.Status = "PENDING" }, true},
		{"zero close time", func(m *Market) { m.CloseTime = time.Time{} }, true},
		{"no outcomes", func(m *Market) { m.AllowedOutcomes = nil }, true},
		{"bad outcome", func(m *Market) { m.AllowedOutcomes = []Outcome{"MAYBE"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMarket()
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarketCloneDoesNotAlias(t *testing.T) {
	m := validMarket()
	m.Metadata = map[string]any{"k": "v"}

	c := m.Clone()
	c.Rules.PrimarySources[0] = "changed"
	c.AllowedOutcomes[0] = OutcomeEarly
	c.Metadata["k"] = "changed"

	if m.Rules.PrimarySources[0] != "https://weather.gov" {
		t.Errorf("primary sources aliased: %v", m.Rules.PrimarySources)
	}
	if m.AllowedOutcomes[0] != OutcomeYes {
		t.Errorf("allowed outcomes aliased: %v", m.AllowedOutcomes)
	}
	if m.Metadata["k"] != "v" {
		t.Errorf("metadata aliased: %v", m.Metadata)
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		in      string
		want    Outcome
		wantErr bool
	}{
		{"YES", OutcomeYes, false},
		{" no ", OutcomeNo, false},
		{"unknown", OutcomeUnknown, false},
		{"Early", OutcomeEarly, false},
		{"maybe", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOutcome(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutcome(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutcome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubmissionValidate(t *testing.T) {
	base := Submission{
		MarketID:   "m-1",
		Outcome:    OutcomeYes,
		Confidence: 0.7,
		ResolvedAt: time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(s *Submission)
		wantErr bool
	}{
		{"valid", func(s *Submission) {}, false},
		{"missing market", func(s *Submission) { s.MarketID = "" }, true},
		{"bad outcome", func(s *Submission) { s.Outcome = "MAYBE" }, true},
		{"confidence above one", func(s *Submission) { s.Confidence = 1.01 }, true},
		{"confidence below zero", func(s *Submission) { s.Confidence = -0.1 }, true},
		{"confidence bounds inclusive", func(s *Submission) { s.Confidence = 1 }, false},
		{"zero resolved at", func(s *Submission) { s.ResolvedAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolutionErrorMatching(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("resolve: %w", NewResolutionError(ErrResolverUpstream, "m-1", cause))

	if !errors.Is(err, ErrResolverUpstream) {
		t.Error("expected errors.Is to match code")
	}
	if errors.Is(err, ErrResolverNoDecision) {
		t.Error("matched the wrong code")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if got := CodeName(err); got != "RESOLVER_UPSTREAM_ERROR" {
		t.Errorf("CodeName = %q", got)
	}
	if got := CodeName(cause); got != "UNKNOWN" {
		t.Errorf("CodeName(plain) = %q", got)
	}

	var re *ResolutionError
	if !errors.As(err, &re) || re.MarketID != "m-1" {
		t.Errorf("errors.As failed: %v", re)
	}
}
