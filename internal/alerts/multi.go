package alerts

import (
	"context"
	"errors"
	"fmt"
)

// MultiSender fans a notification out to several destinations
type MultiSender struct {
	senders []Sender
}

// NewMultiSender creates a new multi-sender
func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{
		senders: senders,
	}
}

// Send delivers to every sender; one failing does not stop the rest
func (s *MultiSender) Send(ctx context.Context, n *Notification) error {
	var errs []error
	for i, sender := range s.senders {
		if err := sender.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("sender %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
