// Package process implements the per-camera process worker: pull a raw
// frame from the capture buffer, undistort/project/flip it through the
// camera model, and deposit the oriented frame into the projection
// barrier.
package process

import (
	"sync/atomic"
	"time"

	"birdseye.dev/bgr"
	"birdseye.dev/camera"
	"birdseye.dev/camparam"
	"birdseye.dev/capture"
	"birdseye.dev/fps"
	"birdseye.dev/geometry"
	"birdseye.dev/sync2"
)

// Worker runs one camera's undistort/project/flip pipeline and feeds
// its output into a shared projection barrier.
type Worker struct {
	id      geometry.Camera
	model   *camera.Model
	in      inBuffer
	barrier *sync2.ProjectionBarrier[geometry.Camera, *bgr.Image]
	fps     fps.Counter
	stop    atomic.Bool
}

// inBuffer is the minimal interface Worker needs from a capture
// buffer, so tests can substitute a fake without depending on the
// capture package's concrete ring.Buffer instantiation.
type inBuffer interface {
	Pop() (capture.Frame, bool)
}

// NewWorker binds a camera model, the capture buffer it reads raw
// frames from, and the projection barrier it deposits into. The
// barrier is a constructor dependency: the worker never mutates its
// membership except via Stop.
func NewWorker(id geometry.Camera, model *camera.Model, in inBuffer, barrier *sync2.ProjectionBarrier[geometry.Camera, *bgr.Image]) *Worker {
	return &Worker{id: id, model: model, in: in, barrier: barrier}
}

// FPS returns the worker's current measured frame rate.
func (w *Worker) FPS() float64 {
	return w.fps.Value()
}

// Run executes the process loop until Stop is called or the input
// buffer is closed. A processOne error, such as camera.Project's
// pipelineerr.NotCalibrated, is passed to onError (when non-nil) and
// the frame is skipped; the worker treats it as transient and
// continues, since a live recalibration will eventually set a project
// matrix.
func (w *Worker) Run(onError func(error)) {
	last := time.Now()
	for !w.stop.Load() {
		raw, ok := w.in.Pop()
		if !ok {
			break
		}
		oriented, err := w.processOne(raw.Image)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		now := time.Now()
		w.fps.Tick(now.Sub(last))
		last = now
		w.barrier.Deposit(w.id, oriented)
		w.barrier.Arrive(w.id)
	}
	w.barrier.Remove(w.id)
}

func (w *Worker) processOne(raw *bgr.Image) (*bgr.Image, error) {
	undistorted := w.model.Undistort(raw)
	projected, err := w.model.Project(undistorted)
	if err != nil {
		return nil, err
	}
	oriented := w.model.Flip(projected)
	applyAdjustment(oriented, w.model.Params().Adjustment)
	return oriented, nil
}

// Stop signals the process loop to exit at the top of its next
// iteration.
func (w *Worker) Stop() {
	w.stop.Store(true)
}

// applyAdjustment mutates img in place with the optional per-camera
// gain/bias pair, a cv2.convertScaleAbs-style brightness/contrast
// adjustment applied before luminance balance. The default (1, 0) pair
// is a no-op.
func applyAdjustment(img *bgr.Image, adj camparam.Adjustment) {
	if adj.Gain == 1 && adj.Bias == 0 {
		return
	}
	for i, c := range img.Pix {
		img.Pix[i] = bgr.Color{
			scaleAbs(c[0], adj.Gain, adj.Bias),
			scaleAbs(c[1], adj.Gain, adj.Bias),
			scaleAbs(c[2], adj.Gain, adj.Bias),
		}
	}
}

func scaleAbs(v byte, gain, bias float64) byte {
	f := float64(v)*gain + bias
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return byte(f + 0.5)
}
