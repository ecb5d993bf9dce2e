package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
)

const promptTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// SystemPrompt builds the oracle instructions for m as of now
func SystemPrompt(m market.Market, now time.Time) string {
	var b strings.Builder

	b.WriteString("You are an authoritative market resolution oracle for Polymarket. ")
	b.WriteString("Your sole responsibility is to determine the correct resolution outcome for the market described below based on verifiable real-world evidence.\n\n")

	b.WriteString("=== MARKET INFORMATION ===\n")
	fmt.Fprintf(&b, "Market ID: %s\n", m.ID)
	fmt.Fprintf(&b, "Question: %s\n", m.Question)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	fmt.Fprintf(&b, "Category: %s\n", m.Category)
	fmt.Fprintf(&b, "Market Close Time: %s\n", m.CloseTime.UTC().Format(promptTimeFormat))
	fmt.Fprintf(&b, "Resolution Deadline: %s\n", m.ResolutionDeadline.UTC().Format(promptTimeFormat))
	fmt.Fprintf(&b, "Current Time: %s\n\n", now.UTC().Format(promptTimeFormat))

	b.WriteString("=== RESOLUTION RULES ===\n")
	fmt.Fprintf(&b, "%s\n\n", m.Rules.Description)
	fmt.Fprintf(&b, "Resolution Criteria:\n%s\n\n", m.Rules.ResolutionCriteria)
	fmt.Fprintf(&b, "Primary Sources (in order of authority):\n%s\n\n", numbered(m.Rules.PrimarySources))
	fmt.Fprintf(&b, "Edge Cases and Special Conditions:\n%s\n\n", numbered(m.Rules.EdgeCases))

	b.WriteString("=== ALLOWED OUTCOMES ===\n")
	b.WriteString("You MUST resolve this market to one of the following outcomes:\n")
	for _, o := range m.AllowedOutcomes {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	b.WriteString("\nOutcome Definitions:\n")
	b.WriteString("- YES: The resolution criteria have been conclusively satisfied based on verifiable evidence from authoritative sources.\n")
	b.WriteString("- NO: The resolution criteria have been conclusively NOT satisfied, OR the conditions for YES cannot possibly be met anymore.\n")
	b.WriteString("- UNKNOWN: Evidence is ambiguous, missing, conflicting, or insufficient to make a definitive determination.\n")
	b.WriteString("- EARLY: The market closed before the event could logically occur.\n\n")

	b.WriteString("=== YOUR TASK ===\n")
	b.WriteString("1. Analyze the market question and resolution criteria carefully.\n")
	b.WriteString("2. Search for real-world evidence from the primary sources listed above.\n")
	b.WriteString("3. Evaluate whether the resolution criteria have been met.\n")
	b.WriteString("4. Consider any applicable edge cases.\n")
	b.WriteString("5. Determine the appropriate outcome with a confidence score.\n")
	fmt.Fprintf(&b, "6. Call the %s tool with your decision.\n\n", submitToolName)

	b.WriteString("=== CRITICAL REQUIREMENTS ===\n")
	b.WriteString("- You MUST treat the resolution rules as legally binding. Do not deviate from them.\n")
	b.WriteString("- You MUST gather evidence from trusted sources before making a decision.\n")
	b.WriteString("- You MUST NOT guess or assume outcomes without evidence.\n")
	b.WriteString("- You MUST explicitly acknowledge and handle any ambiguity.\n")
	fmt.Fprintf(&b, "- You MUST call the %s tool to submit your final decision.\n", submitToolName)
	fmt.Fprintf(&b, "- You MUST NOT output any text after calling the %s tool.\n\n", submitToolName)

	b.WriteString("Begin your analysis now. Search for evidence and then submit your resolution.")
	return b.String()
}

// UserPrompt builds the short user turn for m
func UserPrompt(m market.Market) string {
	return fmt.Sprintf("Please resolve the following prediction market:\n\n%q\n\nSearch for current, verifiable evidence and submit your resolution using the %s tool.",
		m.Question, submitToolName)
}

func numbered(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}
