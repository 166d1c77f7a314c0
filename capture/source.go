// Package capture implements the per-camera capture worker: it owns a
// camera connection, pulls frames, timestamps them, and feeds them into
// a per-device bounded buffer while ticking the capture barrier.
package capture

import "birdseye.dev/bgr"

// Frame is a single captured image paired with its capture timestamp.
type Frame struct {
	TimestampMs int64
	Image       *bgr.Image
}

// Source is a camera connection: either the default platform API (V4L2
// on Linux) or a configurable media pipeline. Grab blocks until a frame
// is available or the connection fails; ok is false on a transient
// read failure that the caller should skip rather than treat as fatal.
type Source interface {
	Grab() (img *bgr.Image, ok bool)
	Close() error
}

// PipelineConfig describes the platform-dependent capture pipeline
// string built from (device id, capture size, framerate, flip method),
// the alternative to the default platform API.
type PipelineConfig struct {
	DeviceID   int
	Width      int
	Height     int
	Framerate  int
	FlipMethod int
}
