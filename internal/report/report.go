// Package report renders and parses the node's line-oriented serial output.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/posture_node/internal/orientation"
)

// Reading is one loop iteration's output. Only Button is meaningful when
// DataEnabled is false.
type Reading struct {
	Time         time.Time           `json:"time"`
	DataEnabled  bool                `json:"data_enabled"`
	Roll         float64             `json:"roll_deg"`
	TemperatureC float64             `json:"temp_c"`
	Posture      orientation.Posture `json:"posture,omitempty"`
	DistanceCM   int64               `json:"distance_cm"`
	Button       bool                `json:"button"`
}

// ModeEvent is published when a double press switches the reporting mode.
type ModeEvent struct {
	Time        time.Time `json:"time"`
	DataEnabled bool      `json:"data_enabled"`
}

// Line renders the reading in the serial format.
//
// The empty field after the temperature (", , Posture") is part of the
// deployed format and consumers already expect it.
func (r Reading) Line() string {
	if !r.DataEnabled {
		return "Button Pressed: " + yesNo(r.Button)
	}
	return fmt.Sprintf("Roll: %.2f°, Temp: %.2f°C, , Posture: %s, Distance: %dcm, Button: %s",
		r.Roll, r.TemperatureC, r.Posture, r.DistanceCM, yesNo(r.Button))
}

// ModeLine is emitted once per mode toggle.
func ModeLine(dataEnabled bool) string {
	if dataEnabled {
		return "Mode: Data Enabled"
	}
	return "Mode: Button Only"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Writer terminates every line with CRLF.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteLine(s string) error {
	_, err := io.WriteString(w.w, s+"\r\n")
	return err
}
