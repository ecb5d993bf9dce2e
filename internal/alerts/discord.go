package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord caps embed field values at 1024 characters
const (
	discordFieldLimit       = 1024
	discordDescriptionLimit = 2000
)

// DiscordSender posts notifications to a Discord webhook
type DiscordSender struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification as a single embed
func (s *DiscordSender) Send(ctx context.Context, n *Notification) error {
	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{buildEmbed(n)},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func buildEmbed(n *Notification) map[string]interface{} {
	var title, description string
	var color int
	fields := []map[string]interface{}{
		{"name": "Market", "value": fmt.Sprintf("`%s`", n.MarketID), "inline": true},
	}

	switch n.Kind {
	case KindFailed:
		title = "❌ Resolution failed"
		color = 0xFF0000 // Red
		description = truncate(n.Question, discordDescriptionLimit)
		fields = append(fields, map[string]interface{}{
			"name": "Error", "value": truncate(n.Error, discordFieldLimit), "inline": false,
		})
	default:
		title = fmt.Sprintf("✅ Market resolved: %s", n.Outcome)
		color = outcomeColor(n.Outcome)
		description = fmt.Sprintf("**%s**\n\n%s", n.Question, truncate(n.Reasoning, discordDescriptionLimit))
		fields = append(fields,
			map[string]interface{}{"name": "Outcome", "value": n.Outcome, "inline": true},
			map[string]interface{}{"name": "Confidence", "value": fmt.Sprintf("%.0f%%", n.Confidence*100), "inline": true},
			map[string]interface{}{"name": "Model", "value": n.ModelUsed, "inline": true},
		)
		if len(n.SourceURLs) > 0 {
			fields = append(fields, map[string]interface{}{
				"name": "Sources", "value": truncate(strings.Join(n.SourceURLs, "\n"), discordFieldLimit), "inline": false,
			})
		}
	}

	return map[string]interface{}{
		"title":       title,
		"description": description,
		"color":       color,
		"fields":      fields,
		"footer": map[string]interface{}{
			"text": fmt.Sprintf("resolvewatch • %s • %s", n.Environment, n.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		},
		"timestamp": n.Timestamp.UTC().Format(time.RFC3339),
	}
}

func outcomeColor(outcome string) int {
	switch outcome {
	case "YES":
		return 0x2ECC71 // Green
	case "NO":
		return 0xE67E22 // Orange
	default:
		return 0x95A5A6 // Grey
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
