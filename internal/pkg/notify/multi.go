package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Multi sends a snapshot to all notifiers
type Multi []Notifier

// Notify implements Notifier, all notifiers are invoked even if some fail
func (m Multi) Notify(ctx context.Context, s *Snapshot) error {
	var res error
	for _, n := range m {
		res = multierr.Append(res, n.Notify(ctx, s))
	}
	return res
}
