package capture

import (
	"sync/atomic"
	"time"

	"birdseye.dev/fps"
	"birdseye.dev/ring"
	"birdseye.dev/sync2"
)

// Worker runs one camera's capture loop: arrive at the capture barrier,
// grab a frame, push it into this device's buffer, update its FPS
// counter. It owns its Source and its capture buffer exclusively; no
// other goroutine touches either while the worker is running.
type Worker[D comparable] struct {
	id         D
	src        Source
	buf        *ring.Buffer[Frame]
	barrier    *sync2.CaptureBarrier[D]
	dropIfFull bool
	fps        fps.Counter
	stop       atomic.Bool
}

// NewWorker binds src, an output buffer, and a capture barrier for
// device id. The barrier is a constructor dependency per the
// re-entrant-barrier design note: membership is fixed at bind time, and
// the worker never mutates it except via Stop.
func NewWorker[D comparable](id D, src Source, bufferSize int, dropIfFull bool, barrier *sync2.CaptureBarrier[D]) *Worker[D] {
	return &Worker[D]{
		id:         id,
		src:        src,
		buf:        ring.New[Frame](bufferSize),
		barrier:    barrier,
		dropIfFull: dropIfFull,
	}
}

// Buffer returns the worker's output buffer, consumed by a process
// worker for the same device id.
func (w *Worker[D]) Buffer() *ring.Buffer[Frame] {
	return w.buf
}

// FPS returns the worker's current measured frame rate.
func (w *Worker[D]) FPS() float64 {
	return w.fps.Value()
}

// Run executes the capture loop until Stop is called. It should be run
// in its own goroutine. A transient Source.Grab failure is skipped, not
// treated as an error; the loop only exits once Stop sets the stop
// flag, at which point the worker removes itself from the barrier so
// the remaining devices are unblocked (the barrier-recovery-on-removal
// scenario).
func (w *Worker[D]) Run() {
	last := time.Now()
	for !w.stop.Load() {
		w.barrier.Arrive(w.id)
		img, ok := w.src.Grab()
		if !ok {
			// Transient read failure: skip the frame, never error.
			continue
		}
		now := time.Now()
		w.fps.Tick(now.Sub(last))
		last = now
		w.buf.Push(Frame{TimestampMs: now.UnixMilli(), Image: img}, w.dropIfFull)
	}
	w.barrier.Remove(w.id)
	w.buf.Close()
	w.src.Close()
}

// Stop signals the capture loop to exit at the top of its next
// iteration.
func (w *Worker[D]) Stop() {
	w.stop.Store(true)
}
