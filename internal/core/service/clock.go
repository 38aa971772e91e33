package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// ManualClock is a logical clock moved forward explicitly.
type ManualClock struct {
	now atomic.Uint32
}

// NewManualClock creates a clock reading start.
func NewManualClock(start uint32) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// Now implements Clock.
func (c *ManualClock) Now() uint32 { return c.now.Load() }

// Advance moves the clock forward by delta and returns the new time.
func (c *ManualClock) Advance(delta uint32) (uint32, error) {
	for {
		cur := c.now.Load()
		next := cur + delta
		if next < cur {
			return cur, domain.ErrInvalidArgument.WithDetailsf("advancing %d by %d overflows", cur, delta)
		}
		if c.now.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

// Restore moves the clock to t if t is later than the current time. It is
// used to resume from the time persisted by a previous run.
func (c *ManualClock) Restore(t uint32) {
	for {
		cur := c.now.Load()
		if t <= cur || c.now.CompareAndSwap(cur, t) {
			return
		}
	}
}

// TickerClock advances one tick per interval while Run is active.
type TickerClock struct {
	*ManualClock
	interval time.Duration
}

// NewTickerClock creates a TickerClock reading start.
func NewTickerClock(start uint32, interval time.Duration) *TickerClock {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &TickerClock{ManualClock: NewManualClock(start), interval: interval}
}

// Interval returns the tick interval.
func (c *TickerClock) Interval() time.Duration { return c.interval }

// Run ticks until ctx is canceled.
func (c *TickerClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.Advance(1)
		}
	}
}
