package fetch

import (
	"context"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Refresher is anything that can re-fetch itself.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshAll fetches every slot concurrently. Slots are independent: one
// failing neither cancels nor corrupts the others. All failures are returned
// combined.
func RefreshAll(ctx context.Context, slots ...Refresher) error {
	// The group only launches and joins the loads. Its goroutines never
	// return an error so that one failure cannot hide the others; those are
	// collected per slot in errs.
	var g errgroup.Group
	errs := make([]error, len(slots))
	for i, slot := range slots {
		if slot == nil {
			continue
		}
		g.Go(func() error {
			errs[i] = slot.Refresh(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return multierr.Combine(errs...)
}
