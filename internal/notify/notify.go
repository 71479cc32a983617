package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/hamed0406/praesto/internal/domain"
)

// Notifier delivers a rendered message through one transport. Any non-success
// answer from the provider is an error.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Multi []Notifier

// Send tries every notifier and returns all failures combined.
func (m Multi) Send(ctx context.Context, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, text))
	}
	return errs
}

func notificationError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrNotification, provider, err)
}
