package notify

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Multi fans an event out to several notifiers concurrently. A failing
// notifier does not stop the others; all errors are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, e Event) error {
	errs := make([]error, len(m))
	var g errgroup.Group
	for i, n := range m {
		g.Go(func() error {
			errs[i] = n.Notify(ctx, e)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}
