//go:build !linux

package capture

import (
	"fmt"

	"birdseye.dev/pipelineerr"
)

// OpenV4L2 is unavailable outside Linux; callers must use the
// configurable media pipeline source instead.
func OpenV4L2(devicePath string, width, height int) (Source, error) {
	return nil, fmt.Errorf("capture: V4L2 unsupported on this platform: %w", pipelineerr.CameraOpenFailed)
}
