package process

import (
	"errors"
	"image"
	"testing"
	"time"

	"golang.org/x/image/math/f64"

	"birdseye.dev/bgr"
	"birdseye.dev/camera"
	"birdseye.dev/camparam"
	"birdseye.dev/capture"
	"birdseye.dev/geometry"
	"birdseye.dev/pipelineerr"
	"birdseye.dev/sync2"
)

type fakeInBuffer struct {
	frames []capture.Frame
	i      int
}

func (f *fakeInBuffer) Pop() (capture.Frame, bool) {
	if f.i >= len(f.frames) {
		return capture.Frame{}, false
	}
	fr := f.frames[f.i]
	f.i++
	return fr, true
}

func newCalibratedModel(t *testing.T, name geometry.Camera) *camera.Model {
	t.Helper()
	layout := geometry.Default
	shape := layout.ProjectedShape(name)
	identity := f64.Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	p := camparam.New(
		f64.Mat3{400, 0, float64(shape.X) / 2, 0, 400, float64(shape.Y) / 2, 0, 0, 1},
		[4]float64{},
		camparam.Resolution{W: shape.X, H: shape.Y},
		[2]float64{1, 1}, [2]float64{},
	)
	p.SetProjectMatrix(identity)
	return camera.NewModel(p, name, layout)
}

func TestProcessWorkerDepositsOrientedFrame(t *testing.T) {
	model := newCalibratedModel(t, geometry.Front)
	shape := geometry.Default.ProjectedShape(geometry.Front)
	raw := bgr.New(image.Rect(0, 0, shape.X, shape.Y))

	in := &fakeInBuffer{frames: []capture.Frame{{Image: raw}}}
	barrier := sync2.NewProjectionBarrier[geometry.Camera, *bgr.Image]([]geometry.Camera{geometry.Front}, 2, true)
	w := NewWorker(geometry.Front, model, in, barrier)

	done := make(chan struct{})
	var runErr error
	go func() {
		w.Run(func(err error) { runErr = err })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not finish after buffer drained")
	}
	if runErr != nil {
		t.Fatalf("onError called with %v", runErr)
	}

	snap, ok := barrier.Pop()
	if !ok {
		t.Fatalf("expected a deposited snapshot")
	}
	if _, ok := snap[geometry.Front]; !ok {
		t.Fatalf("snapshot missing front frame")
	}
}

func TestProcessWorkerNotCalibratedIsReportedAndSkipped(t *testing.T) {
	layout := geometry.Default
	p := camparam.New(
		f64.Mat3{4, 0, 2, 0, 4, 2, 0, 0, 1},
		[4]float64{},
		camparam.Resolution{W: 4, H: 4},
		[2]float64{1, 1}, [2]float64{},
	)
	model := camera.NewModel(p, geometry.Front, layout)
	raw := bgr.New(image.Rect(0, 0, 4, 4))
	in := &fakeInBuffer{frames: []capture.Frame{{Image: raw}}}
	barrier := sync2.NewProjectionBarrier[geometry.Camera, *bgr.Image]([]geometry.Camera{geometry.Front}, 2, true)
	w := NewWorker(geometry.Front, model, in, barrier)

	var gotErr error
	done := make(chan struct{})
	go func() {
		w.Run(func(err error) { gotErr = err })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not finish")
	}
	if gotErr == nil {
		t.Fatalf("expected NotCalibrated to be reported")
	}
	if !errors.Is(gotErr, pipelineerr.NotCalibrated) {
		t.Fatalf("err = %v, want wrapping NotCalibrated", gotErr)
	}
}
