// Package gensync drives an optional hardware genlock: a microcontroller
// on a serial line that emits a trigger pulse on request, used to pace
// all four camera captures off one external clock instead of the
// software capture barrier alone. It is a pure enrichment: a pipeline
// with no genlock device attached runs unmodified off the capture
// barrier.
package gensync

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Generator sends a one-byte trigger command to a genlock device and
// waits for its one-byte acknowledgement.
type Generator struct {
	port io.ReadWriteCloser
	r    *bufio.Reader
}

const (
	triggerCmd = 0x54 // 'T'
	ackByte    = 0x4b // 'K'

	ackTimeout = 50 * time.Millisecond
)

// Open opens dev (or probes the platform's usual USB-serial paths when
// dev is empty, the same fallback Open in the engraver driver uses) at
// a fixed baud rate matching the genlock firmware.
func Open(dev string) (*Generator, error) {
	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		devices = append(devices, "/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB0")
	}
	var firstErr error
	for _, d := range devices {
		c := &serial.Config{Name: d, Baud: 115200, ReadTimeout: ackTimeout}
		s, err := serial.OpenPort(c)
		if err == nil {
			return &Generator{port: s, r: bufio.NewReader(s)}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// Trigger asks the genlock device to fire one pulse and blocks until
// its acknowledgement arrives or ackTimeout elapses.
func (g *Generator) Trigger() error {
	if _, err := g.port.Write([]byte{triggerCmd}); err != nil {
		return fmt.Errorf("gensync: write trigger: %w", err)
	}
	b, err := g.r.ReadByte()
	if err != nil {
		return fmt.Errorf("gensync: read ack: %w", err)
	}
	if b != ackByte {
		return errors.New("gensync: unexpected ack byte")
	}
	return nil
}

// Close releases the underlying serial port.
func (g *Generator) Close() error {
	return g.port.Close()
}
