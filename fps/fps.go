// Package fps implements the lock-free atomic frame-rate counter that
// replaces the observer-signal statistics of the original design: each
// worker ticks its own counter, and the display loop polls it.
package fps

import (
	"math"
	"sync/atomic"
	"time"
)

// Counter tracks a smoothed frames-per-second estimate, safe for
// concurrent Tick and Value calls from any number of goroutines.
type Counter struct {
	bits atomic.Uint64
}

// smoothing is the exponential moving average weight given to each new
// sample; low enough that a single slow frame doesn't make the
// displayed rate jump.
const smoothing = 0.1

// Tick records that a frame was produced elapsed time after the
// previous one.
func (c *Counter) Tick(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	sample := 1 / elapsed.Seconds()
	for {
		old := c.bits.Load()
		oldV := math.Float64frombits(old)
		var newV float64
		if oldV == 0 {
			newV = sample
		} else {
			newV = oldV + smoothing*(sample-oldV)
		}
		if c.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

// Value returns the current smoothed frames-per-second estimate, 0 if
// no sample has been recorded yet.
func (c *Counter) Value() float64 {
	return math.Float64frombits(c.bits.Load())
}
