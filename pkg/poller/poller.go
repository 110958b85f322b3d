package poller

import (
	"context"
	"time"
)

// Poller drives due-check passes: once immediately on start, then on a
// fixed cadence until canceled. It holds no alarm data; each pass receives
// the current instant and does whatever the caller wired in.
//
// Passes run on a single goroutine consuming the ticker, so they never
// overlap. A pass running longer than the interval delays the next tick
// instead of stacking on top of it.
type Poller struct {
	// Now is the clock handed to each pass. Swappable in tests.
	Now func() time.Time

	interval time.Duration
	pass     func(now time.Time)
	cancel   context.CancelFunc
}

func New(interval time.Duration, pass func(now time.Time)) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		Now:      time.Now,
		interval: interval,
		pass:     pass,
		cancel:   func() {},
	}
}

// Run starts the polling loop in the background until ctx is canceled or
// Interrupt is called.
func (p *Poller) Run(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

// Interrupt stops all periodic work.
func (p *Poller) Interrupt() {
	p.cancel()
}

func (p *Poller) run(ctx context.Context) {
	// Check right away; an alarm due this minute should not wait for the
	// first tick.
	p.pass(p.Now())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pass(p.Now())
		}
	}
}
