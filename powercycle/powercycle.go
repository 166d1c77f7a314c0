// Package powercycle drives a GPIO-controlled relay that power-cycles
// the four cameras, the recovery path for a camera whose capture
// source reports repeated transient errors (a wedged USB UVC device
// that only clears on a power-down). Enrichment only: a deployment
// without the relay wired up simply never calls Cycle.
package powercycle

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/bcm283x"
)

// Relay drives one GPIO pin low to cut camera power and high to
// restore it, mirroring the active-low relay boards used on the
// button HAT's own GPIO wiring.
type Relay struct {
	pin gpio.PinIO
}

// Open initializes the host GPIO driver and binds the relay to pin.
func Open(pin gpio.PinIO) (*Relay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("powercycle: init host: %w", err)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("powercycle: init pin: %w", err)
	}
	return &Relay{pin: pin}, nil
}

// OpenDefault binds to the camera-power relay's fixed GPIO pin.
func OpenDefault() (*Relay, error) {
	return Open(bcm283x.GPIO27)
}

// Cycle drops camera power for settle, then restores it.
func (r *Relay) Cycle(settle time.Duration) error {
	if err := r.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("powercycle: power off: %w", err)
	}
	time.Sleep(settle)
	if err := r.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("powercycle: power on: %w", err)
	}
	return nil
}
