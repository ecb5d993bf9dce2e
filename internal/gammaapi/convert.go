package gammaapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
)

// IDPrefix namespaces imported markets in the registry
const IDPrefix = "gamma-"

// ResolutionGrace is added to the end date to form the resolution deadline
const ResolutionGrace = 48 * time.Hour

// ToMarket converts a Gamma market into a registry market. Markets Gamma
// reports closed are imported CLOSED; everything else starts ACTIVE.
func ToMarket(gm *Market, now time.Time) (market.Market, error) {
	if gm == nil || gm.ID == "" {
		return market.Market{}, fmt.Errorf("gamma market has no id")
	}

	closeTime, err := parseTime(gm.EndDate)
	if err != nil {
		return market.Market{}, fmt.Errorf("parse end date %q: %w", gm.EndDate, err)
	}

	createdAt, err := parseTime(gm.CreatedAt)
	if err != nil {
		createdAt = now.UTC()
	}

	status := market.StatusActive
	if gm.Closed {
		status = market.StatusClosed
	}

	category := strings.ToLower(strings.TrimSpace(gm.Category))
	if category == "" {
		category = "other"
	}

	sources := []string{}
	if src := strings.TrimSpace(gm.ResolutionSource); src != "" {
		sources = append(sources, src)
	}
	if gm.Slug != "" {
		sources = append(sources, "https://polymarket.com/market/"+gm.Slug)
	}

	m := market.Market{
		ID:                 IDPrefix + gm.ID,
		Question:           gm.Question,
		Description:        gm.Description,
		Category:           category,
		CreatedAt:          createdAt,
		CloseTime:          closeTime,
		ResolutionDeadline: closeTime.Add(ResolutionGrace),
		Status:             status,
		Rules: market.Rules{
			Description:        gm.Description,
			ResolutionCriteria: gm.Description,
			PrimarySources:     sources,
			EdgeCases:          []string{},
		},
		AllowedOutcomes: allowedOutcomes(gm.Outcomes),
		Metadata: map[string]any{
			"gammaId":     gm.ID,
			"conditionId": gm.ConditionID,
			"slug":        gm.Slug,
			"volume":      gm.VolumeNum,
		},
	}

	if err := m.Validate(); err != nil {
		return market.Market{}, fmt.Errorf("invalid gamma market %s: %w", gm.ID, err)
	}
	return m, nil
}

// allowedOutcomes maps binary Gamma outcomes onto YES/NO. UNKNOWN and EARLY
// are always allowed so the resolver can decline to decide.
func allowedOutcomes(raw string) []market.Outcome {
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		labels = strings.Split(raw, ",")
	}

	out := []market.Outcome{}
	seen := map[market.Outcome]bool{}
	add := func(o market.Outcome) {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}

	for _, label := range labels {
		if o, err := market.ParseOutcome(label); err == nil && (o == market.OutcomeYes || o == market.OutcomeNo) {
			add(o)
		}
	}
	if len(out) == 0 {
		add(market.OutcomeYes)
		add(market.OutcomeNo)
	}
	add(market.OutcomeUnknown)
	add(market.OutcomeEarly)
	return out
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}
