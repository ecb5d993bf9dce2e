package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/liamashdown/resolvewatch/internal/market"
)

const submitToolName = "submit_resolution"

type toolDefinition struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// submitResolutionTool describes the function the model must call
func submitResolutionTool(allowed []market.Outcome) toolDefinition {
	enum := make([]string, 0, len(allowed))
	for _, o := range allowed {
		enum = append(enum, string(o))
	}
	if len(enum) == 0 {
		for _, o := range market.AllOutcomes {
			enum = append(enum, string(o))
		}
	}

	return toolDefinition{
		Type: "function",
		Function: toolFunction{
			Name:        submitToolName,
			Description: "Submit the final resolution decision for the prediction market. This must be called exactly once with your final determination.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"outcome": map[string]any{
						"type":        "string",
						"enum":        enum,
						"description": "The resolution outcome for the market",
					},
					"reasoning": map[string]any{
						"type":        "string",
						"description": "Detailed explanation of how the outcome was determined, referencing the rules and evidence",
					},
					"sources": map[string]any{
						"type":        "array",
						"description": "Sources used to reach the decision",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"url":       map[string]any{"type": "string", "description": "URL of the source"},
								"title":     map[string]any{"type": "string", "description": "Title of the source"},
								"relevance": map[string]any{"type": "string", "description": "How this source supports the decision"},
							},
							"required": []string{"url", "title", "relevance"},
						},
					},
					"confidence": map[string]any{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Confidence in the decision, from 0 to 1",
					},
				},
				"required": []string{"outcome", "reasoning", "sources", "confidence"},
			},
		},
	}
}

// decisionArgs mirrors the tool arguments as sent by the model. Confidence
// arrives as a number from most models and occasionally as a string.
type decisionArgs struct {
	Outcome    string          `json:"outcome"`
	Reasoning  string          `json:"reasoning"`
	Sources    json.RawMessage `json:"sources"`
	Confidence json.RawMessage `json:"confidence"`
}

// parseDecision turns raw tool arguments into a submission for m
func parseDecision(m market.Market, raw string) (market.Submission, error) {
	var args decisionArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return market.Submission{}, fmt.Errorf("decode tool arguments: %w", err)
	}

	outcome, err := market.ParseOutcome(args.Outcome)
	if err != nil {
		return market.Submission{}, err
	}
	if len(m.AllowedOutcomes) > 0 && !allowed(m.AllowedOutcomes, outcome) {
		return market.Submission{}, fmt.Errorf("outcome %s not allowed for market %s", outcome, m.ID)
	}

	return market.Submission{
		MarketID:   m.ID,
		Outcome:    outcome,
		Reasoning:  args.Reasoning,
		Sources:    parseSources(args.Sources),
		Confidence: parseConfidence(args.Confidence),
	}, nil
}

func allowed(outcomes []market.Outcome, o market.Outcome) bool {
	for _, a := range outcomes {
		if a == o {
			return true
		}
	}
	return false
}

// parseSources keeps whatever well-formed entries the model produced
func parseSources(raw json.RawMessage) []market.Source {
	sources := []market.Source{}
	if len(raw) == 0 {
		return sources
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return sources
	}
	for _, item := range items {
		var s market.Source
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s.URL == "" && s.Title == "" {
			continue
		}
		sources = append(sources, s)
	}
	return sources
}

// parseConfidence coerces the value to a number clamped to [0, 1]
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		v = parsed
	}

	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
