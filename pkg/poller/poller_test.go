package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerRunsImmediately(t *testing.T) {
	var passes atomic.Int64
	p := New(time.Hour, func(time.Time) { passes.Add(1) })

	p.Run(context.Background())
	defer p.Interrupt()

	// The first pass fires on start, not after the first interval.
	assert.Eventually(t, func() bool {
		return passes.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestPollerTicksOnInterval(t *testing.T) {
	var passes atomic.Int64
	p := New(5*time.Millisecond, func(time.Time) { passes.Add(1) })

	p.Run(context.Background())
	defer p.Interrupt()

	assert.Eventually(t, func() bool {
		return passes.Load() >= 3
	}, time.Second, time.Millisecond)
}

func TestPollerUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 8, 24, 7, 30, 0, 0, time.UTC)

	var got atomic.Value
	p := New(time.Hour, func(now time.Time) { got.Store(now) })
	p.Now = func() time.Time { return fixed }

	p.Run(context.Background())
	defer p.Interrupt()

	assert.Eventually(t, func() bool {
		now, ok := got.Load().(time.Time)
		return ok && now.Equal(fixed)
	}, time.Second, time.Millisecond)
}

func TestPollerInterruptStopsWork(t *testing.T) {
	var passes atomic.Int64
	p := New(5*time.Millisecond, func(time.Time) { passes.Add(1) })

	p.Run(context.Background())
	assert.Eventually(t, func() bool {
		return passes.Load() >= 2
	}, time.Second, time.Millisecond)

	p.Interrupt()
	settled := passes.Load()
	time.Sleep(50 * time.Millisecond)
	// One pass may have been mid-flight at cancellation; nothing beyond it.
	assert.LessOrEqual(t, passes.Load(), settled+1)
}

func TestPollerParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var passes atomic.Int64
	p := New(5*time.Millisecond, func(time.Time) { passes.Add(1) })
	p.Run(ctx)

	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := passes.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, passes.Load())
}
