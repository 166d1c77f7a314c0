// Package pipelineerr defines the sentinel error kinds shared by every
// stage of the surround-view pipeline, checked with [errors.Is].
//
// Propagation policy: FrameReadTransient is swallowed per frame (the
// capturing worker skips the frame and continues); every other kind is
// surfaced to the caller that initiated the operation. No error crosses
// a barrier or buffer boundary silently — a worker that hits a fatal
// error logs it and exits its loop cleanly.
package pipelineerr

import "errors"

var (
	// ConfigMissing is returned when a camera parameter file does not exist.
	ConfigMissing = errors.New("pipeline: camera config file missing")
	// ConfigInvalid is returned when a camera parameter file is present
	// but missing required fields.
	ConfigInvalid = errors.New("pipeline: camera config invalid")
	// NotCalibrated is returned by Project when no project matrix has
	// been set on the camera model.
	NotCalibrated = errors.New("pipeline: camera not calibrated")
	// CameraOpenFailed is returned when a capture device cannot be opened.
	CameraOpenFailed = errors.New("pipeline: camera open failed")
	// ResolutionUnsupported is returned when a capture device refuses
	// the requested resolution.
	ResolutionUnsupported = errors.New("pipeline: resolution unsupported")
	// FrameReadTransient marks a single bad frame read; callers skip and
	// continue rather than propagate it.
	FrameReadTransient = errors.New("pipeline: transient frame read failure")
	// BufferShutdown names a buffer operation performed after the
	// buffer has been torn down. ring.Buffer does not return it: its
	// Push and Pop report that condition as a false bool result.
	BufferShutdown = errors.New("pipeline: buffer shut down")
)
