package capture

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"birdseye.dev/bgr"
	"birdseye.dev/sync2"
)

type fakeSource struct {
	n      atomic.Int32
	closed atomic.Bool
}

func (f *fakeSource) Grab() (*bgr.Image, bool) {
	f.n.Add(1)
	img := bgr.New(image.Rect(0, 0, 2, 2))
	return img, true
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

func TestWorkerPushesFramesAndTicksBarrier(t *testing.T) {
	barrier := sync2.NewCaptureBarrier([]int{0})
	src := &fakeSource{}
	w := NewWorker(0, src, 4, true, barrier)

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	if _, ok := w.Buffer().Pop(); !ok {
		t.Fatalf("expected at least one captured frame")
	}
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop")
	}
	if !src.closed.Load() {
		t.Fatalf("source was not closed on stop")
	}
}
