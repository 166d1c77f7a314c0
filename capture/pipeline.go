package capture

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os/exec"

	"birdseye.dev/bgr"
	"birdseye.dev/pipelineerr"
)

// BuildPipelineString renders the platform-dependent GStreamer-style
// pipeline description for the given device and capture parameters,
// ending in a raw BGR24 fdsink on file descriptor 1 so the pipeline
// source can read frames directly from the process's stdout.
func BuildPipelineString(cfg PipelineConfig) string {
	return fmt.Sprintf(
		"v4l2src device=/dev/video%d ! video/x-raw,width=%d,height=%d,framerate=%d/1 "+
			"! videoflip method=%d ! videoconvert ! video/x-raw,format=BGR "+
			"! fdsink fd=1",
		cfg.DeviceID, cfg.Width, cfg.Height, cfg.Framerate, cfg.FlipMethod,
	)
}

// pipelineSource reads raw BGR24 frames from a subprocess running a
// media pipeline, the configurable alternative to the default platform
// camera API.
type pipelineSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	r      *bufio.Reader
	w, h   int
}

// OpenPipeline launches binary (typically "gst-launch-1.0") with args
// ending in the pipeline built by BuildPipelineString and reads
// successive BGR24 frames of size w*h*3 from its standard output.
func OpenPipeline(binary string, args []string, w, h int) (Source, error) {
	cmd := exec.Command(binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: pipeline stdout: %w: %v", pipelineerr.CameraOpenFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: pipeline start: %w: %v", pipelineerr.CameraOpenFailed, err)
	}
	return &pipelineSource{
		cmd:    cmd,
		stdout: stdout,
		r:      bufio.NewReaderSize(stdout, w*h*3),
		w:      w,
		h:      h,
	}, nil
}

// Grab reads one full BGR24 frame. ok is false on a short read, a
// transient condition the caller should skip.
func (s *pipelineSource) Grab() (*bgr.Image, bool) {
	n := s.w * s.h * 3
	raw := make([]byte, n)
	if _, err := io.ReadFull(s.r, raw); err != nil {
		return nil, false
	}
	img := bgr.New(image.Rect(0, 0, s.w, s.h))
	for i := 0; i < s.w*s.h; i++ {
		img.Pix[i] = bgr.Color{raw[i*3], raw[i*3+1], raw[i*3+2]}
	}
	return img, true
}

// Close terminates the subprocess.
func (s *pipelineSource) Close() error {
	s.stdout.Close()
	s.cmd.Process.Kill()
	return s.cmd.Wait()
}
