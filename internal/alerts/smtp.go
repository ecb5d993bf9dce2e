package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPSender sends notifications via email
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, user, password, from string, to []string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
	}
}

// Send emails the notification
func (s *SMTPSender) Send(ctx context.Context, n *Notification) error {
	if len(s.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := s.send(addr, auth, s.from, s.to, s.buildMessage(n)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(n *Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject(n))
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(emailBody(n))
	return []byte(b.String())
}

func subject(n *Notification) string {
	if n.Kind == KindFailed {
		return fmt.Sprintf("[resolvewatch] Resolution failed: %s", n.MarketID)
	}
	return fmt.Sprintf("[resolvewatch] %s resolved %s", n.MarketID, n.Outcome)
}

func emailBody(n *Notification) string {
	var b strings.Builder
	b.WriteString("RESOLVEWATCH NOTIFICATION\n")
	b.WriteString("═══════════════════════════════════════\n\n")
	fmt.Fprintf(&b, "Market:         %s\n", n.MarketID)
	fmt.Fprintf(&b, "Question:       %s\n\n", n.Question)

	if n.Kind == KindFailed {
		b.WriteString("FAILURE\n")
		b.WriteString("─────────────────────────────────────\n")
		fmt.Fprintf(&b, "%s\n\n", n.Error)
		b.WriteString("The market has been returned to CLOSED and will be retried.\n\n")
	} else {
		b.WriteString("RESOLUTION\n")
		b.WriteString("─────────────────────────────────────\n")
		fmt.Fprintf(&b, "Outcome:        %s\n", n.Outcome)
		fmt.Fprintf(&b, "Confidence:     %.2f\n", n.Confidence)
		fmt.Fprintf(&b, "Model:          %s\n", n.ModelUsed)
		fmt.Fprintf(&b, "Record:         %s\n\n", n.RecordID)
		b.WriteString("REASONING\n")
		b.WriteString("─────────────────────────────────────\n")
		fmt.Fprintf(&b, "%s\n\n", n.Reasoning)
		if len(n.SourceURLs) > 0 {
			b.WriteString("SOURCES\n")
			b.WriteString("─────────────────────────────────────\n")
			for _, u := range n.SourceURLs {
				fmt.Fprintf(&b, "- %s\n", u)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&b, "Environment: %s\n", n.Environment)
	fmt.Fprintf(&b, "Time: %s\n", n.Timestamp.UTC().Format(time.RFC3339))
	return b.String()
}
