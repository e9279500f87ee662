package throttle

import (
	"context"
	"time"
)

// New makes a limiter that admits at most one action per interval.
func New(interval time.Duration) *Throttler {
	return &Throttler{
		ticker: time.NewTicker(interval),
	}
}

type Throttler struct {
	ticker *time.Ticker
}

// Wait blocks until the next slot or context cancellation.
func (t *Throttler) Wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-t.ticker.C:
		return true
	}
}

func (t *Throttler) Stop() {
	t.ticker.Stop()
}
