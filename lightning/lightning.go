package lightning

import (
	"context"
	"time"

	"github.com/gr-butler/highlow/samples"
)

// Counter reports how many strikes were logged in a trailing window.
type Counter struct {
	store *samples.Store
	now   func() time.Time
}

func NewCounter(store *samples.Store) *Counter {
	return &Counter{store: store, now: time.Now}
}

// CountSince counts strikes newer than now - hours.
func (c *Counter) CountSince(ctx context.Context, hours float64) (int, error) {
	after := c.now().Add(-time.Duration(hours * float64(time.Hour)))
	return c.store.CountSince(ctx, samples.Lightning, after)
}
