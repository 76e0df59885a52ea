// Package serialport opens the 8N1 serial link between the node and the
// monitor.
package serialport

import (
	"fmt"
	"io"
	"os"

	serial "github.com/jacobsa/go-serial/serial"
)

// DefaultBaud matches the node's reference serial rate.
const DefaultBaud = 9600

// Options returns 8N1 options for port at baud.
func Options(port string, baud int) serial.OpenOptions {
	if baud <= 0 {
		baud = DefaultBaud
	}
	return serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// Open opens port. An empty port name returns stdout, which lets the node
// run on a desk without the serial adapter.
func Open(port string, baud int) (io.ReadWriteCloser, error) {
	if port == "" {
		return nopCloser{os.Stdout}, nil
	}
	rwc, err := serial.Open(Options(port, baud))
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	return rwc, nil
}

type nopCloser struct {
	*os.File
}

func (nopCloser) Close() error { return nil }
