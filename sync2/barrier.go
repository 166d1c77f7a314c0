// Package sync2 implements the two reusable barrier primitives the
// surround-view pipeline uses to keep four independent camera streams
// in lockstep: a plain CaptureBarrier that groups capture threads, and
// a ProjectionBarrier that additionally fans the four latest projected
// frames into a single consistent snapshot.
//
// Both are built as sense-reversing (generation-counted) barriers: a
// condition variable guards an arrival counter and a generation number,
// so a goroutine that was still asleep from the previous round can
// never be spuriously released by the next one, unlike a barrier that
// only tracks a raw arrival count.
package sync2

import "sync"

// core is the generation-counted barrier shared by CaptureBarrier and
// ProjectionBarrier. It is reusable: once every registered participant
// has called arrive, the counter resets and a new generation begins.
type core[D comparable] struct {
	mu      sync.Mutex
	cond    sync.Cond
	devices map[D]struct{}
	count   int
	gen     uint64
}

func newCore[D comparable](devices []D) *core[D] {
	c := &core[D]{devices: make(map[D]struct{}, len(devices))}
	c.cond.L = &c.mu
	for _, d := range devices {
		c.devices[d] = struct{}{}
	}
	return c
}

// arrive blocks the caller until every currently registered device has
// called arrive in this generation. release reports whether this call
// was the one that triggered the release (useful to a caller, such as
// ProjectionBarrier, that must do work exactly once per round).
func (c *core[D]) arrive(id D) (release bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.devices[id]; !ok {
		return false
	}
	gen := c.gen
	c.count++
	if c.count >= len(c.devices) {
		c.count = 0
		c.gen++
		c.cond.Broadcast()
		return true
	}
	for gen == c.gen {
		c.cond.Wait()
	}
	return false
}

// remove drops a device from the barrier's membership. If every
// remaining registered device has already arrived this generation, the
// removal itself triggers a release — this is what lets the surviving
// N-1 participants make progress after one peer is stopped mid-run.
func (c *core[D]) remove(id D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.devices[id]; !ok {
		return
	}
	delete(c.devices, id)
	if len(c.devices) > 0 && c.count >= len(c.devices) {
		c.count = 0
		c.gen++
	}
	c.cond.Broadcast()
}

func (c *core[D]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.devices)
}

// CaptureBarrier groups the four capture threads: the first k-1
// arrivals in a round block, and the k-th releases all of them at once,
// guaranteeing no capture worker is ever more than one frame ahead of
// its slowest peer.
type CaptureBarrier[D comparable] struct {
	c *core[D]
}

// NewCaptureBarrier returns a barrier for exactly the given devices.
func NewCaptureBarrier[D comparable](devices []D) *CaptureBarrier[D] {
	return &CaptureBarrier[D]{c: newCore(devices)}
}

// Arrive blocks until every registered device has arrived this round.
// Calling Arrive with an id that is not (or no longer) registered
// returns immediately.
func (b *CaptureBarrier[D]) Arrive(id D) {
	b.c.arrive(id)
}

// Remove drops a device from the barrier, waking any waiters so they
// can re-evaluate the (now smaller) membership.
func (b *CaptureBarrier[D]) Remove(id D) {
	b.c.remove(id)
}

// Len reports the number of devices currently registered.
func (b *CaptureBarrier[D]) Len() int {
	return b.c.size()
}
