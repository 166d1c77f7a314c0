package stitch

import (
	"image"
	"sync/atomic"
	"time"

	"birdseye.dev/bgr"
	"birdseye.dev/fps"
	"birdseye.dev/geometry"
	"birdseye.dev/ring"
	"birdseye.dev/weights"
)

// snapshotSource is the minimal interface Stitcher needs from a
// projection barrier, so tests can substitute a fake.
type snapshotSource interface {
	Pop() (map[geometry.Camera]*bgr.Image, bool)
}

// Stitcher consumes four-camera snapshots and publishes composite
// frames. A snapshot missing one of the four cameras is skipped
// outright: the stitcher never blocks waiting for a camera to
// reappear, and never emits a composite built from a stale or absent
// frame.
type Stitcher struct {
	in     snapshotSource
	layout geometry.Layout
	tiles  *weights.Tiles
	icon   *bgr.Image

	out        *ring.Buffer[*bgr.Image]
	dropIfFull bool

	fps  fps.Counter
	stop atomic.Bool
}

// NewStitcher binds the projection barrier to read snapshots from, the
// layout and seam weights/masks to stitch with, and an optional car
// icon (nil selects the built-in vector icon).
func NewStitcher(in snapshotSource, layout geometry.Layout, tiles *weights.Tiles, icon *bgr.Image, bufferSize int, dropIfFull bool) *Stitcher {
	return &Stitcher{
		in:         in,
		layout:     layout,
		tiles:      tiles,
		icon:       icon,
		out:        ring.New[*bgr.Image](bufferSize),
		dropIfFull: dropIfFull,
	}
}

// Output is the buffer composite frames are published to.
func (s *Stitcher) Output() *ring.Buffer[*bgr.Image] {
	return s.out
}

// FPS returns the stitcher's current measured composite rate.
func (s *Stitcher) FPS() float64 {
	return s.fps.Value()
}

// Run executes the stitch loop until Stop is called or the input
// snapshot source is closed.
func (s *Stitcher) Run() {
	last := time.Now()
	for !s.stop.Load() {
		frames, ok := s.in.Pop()
		if !ok {
			break
		}
		if !hasAllCameras(frames) {
			continue
		}
		canvas := s.StitchOne(frames)
		now := time.Now()
		s.fps.Tick(now.Sub(last))
		last = now
		s.out.Push(canvas, s.dropIfFull)
	}
	s.out.Close()
}

// StitchOne runs the full luminance balance -> blend -> white balance
// -> car overlay pipeline on one four-camera snapshot, returning the
// composite canvas. The snapshot must already contain all four
// cameras; callers iterating a projection barrier's Pop results should
// check hasAllCameras first.
func (s *Stitcher) StitchOne(frames map[geometry.Camera]*bgr.Image) *bgr.Image {
	gains := LuminanceBalance(s.layout, frames, s.tiles)
	balanced := make(map[geometry.Camera]*bgr.Image, len(frames))
	for cam, frame := range frames {
		b := frame.Clone()
		gains[cam].Apply(b)
		balanced[cam] = b
	}

	size := s.layout.CanvasSize()
	canvas := bgr.New(image.Rect(0, 0, size.X, size.Y))
	Blend(canvas, s.layout, balanced, s.tiles)
	WhiteBalance(canvas)
	CarOverlay(canvas, s.layout, s.icon)
	return canvas
}

// hasAllCameras reports whether frames contains all four cameras.
func hasAllCameras(frames map[geometry.Camera]*bgr.Image) bool {
	for _, c := range [4]geometry.Camera{geometry.Front, geometry.Back, geometry.Left, geometry.Right} {
		if frames[c] == nil {
			return false
		}
	}
	return true
}

// Stop signals the stitch loop to exit at the top of its next
// iteration.
func (s *Stitcher) Stop() {
	s.stop.Store(true)
}
