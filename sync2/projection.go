package sync2

import (
	"sync"

	"birdseye.dev/ring"
)

// ProjectionBarrier groups the four process threads. Each participant
// deposits its latest projected frame keyed by device id before calling
// Arrive; on the releasing arrival the barrier snapshots the current
// four-frame map and pushes it into a bounded buffer for the stitcher
// to consume. This guarantees the stitcher always operates on a
// consistent four-camera set rather than frames that crossed arbitrary
// staleness boundaries.
type ProjectionBarrier[D comparable, F any] struct {
	c *core[D]

	mu     sync.Mutex
	frames map[D]F

	out        *ring.Buffer[map[D]F]
	dropIfFull bool
}

// NewProjectionBarrier returns a barrier for the given devices, backed
// by an output buffer of the given capacity.
func NewProjectionBarrier[D comparable, F any](devices []D, bufferSize int, dropIfFull bool) *ProjectionBarrier[D, F] {
	return &ProjectionBarrier[D, F]{
		c:          newCore(devices),
		frames:     make(map[D]F, len(devices)),
		out:        ring.New[map[D]F](bufferSize),
		dropIfFull: dropIfFull,
	}
}

// Deposit records the latest projected frame for device id. It must be
// called before Arrive in the same round.
func (b *ProjectionBarrier[D, F]) Deposit(id D, frame F) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames[id] = frame
}

// Arrive blocks until every registered device has arrived this round.
// The releasing caller snapshots the frame map and publishes it to the
// output buffer; every other caller simply unblocks.
func (b *ProjectionBarrier[D, F]) Arrive(id D) {
	release := b.c.arrive(id)
	if !release {
		return
	}
	b.mu.Lock()
	snapshot := make(map[D]F, len(b.frames))
	for k, v := range b.frames {
		snapshot[k] = v
	}
	b.mu.Unlock()
	b.out.Push(snapshot, b.dropIfFull)
}

// Remove drops a device from the barrier and discards its last
// deposited frame.
func (b *ProjectionBarrier[D, F]) Remove(id D) {
	b.c.remove(id)
	b.mu.Lock()
	delete(b.frames, id)
	b.mu.Unlock()
}

// Pop blocks until a consistent four-camera snapshot is available.
func (b *ProjectionBarrier[D, F]) Pop() (map[D]F, bool) {
	return b.out.Pop()
}

// Len reports the number of devices currently registered.
func (b *ProjectionBarrier[D, F]) Len() int {
	return b.c.size()
}

// Close shuts down the output buffer, unblocking any pending Pop.
func (b *ProjectionBarrier[D, F]) Close() {
	b.out.Close()
}
