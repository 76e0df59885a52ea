// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package node runs the single polling loop of the posture node.
package node

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/relabs-tech/posture_node/internal/gesture"
	"github.com/relabs-tech/posture_node/internal/imu"
	"github.com/relabs-tech/posture_node/internal/orientation"
	"github.com/relabs-tech/posture_node/internal/report"
)

// Interval paces loop iterations. Button edges are only sampled this often.
const Interval = 3 * time.Second

// ButtonReader samples the push button.
type ButtonReader interface {
	Pressed() bool
}

// IMUReader returns a raw sample. The sample is used even when err is set.
type IMUReader interface {
	ReadRaw() (imu.Raw, error)
}

// Ranger measures distance in centimetres, 0 when nothing echoes back.
type Ranger interface {
	Measure() int64
}

// Publisher receives every reading and mode change in addition to the serial
// line. Errors are logged and never stop the loop.
type Publisher interface {
	PublishReading(report.Reading) error
	PublishMode(report.ModeEvent) error
}

// Node owns all loop state: the debounced button level, the double-press
// detector and the reporting mode.
type Node struct {
	button ButtonReader
	imu    IMUReader
	ranger Ranger
	out    *report.Writer
	logger *slog.Logger

	publishers []Publisher

	interval time.Duration
	start    time.Time
	now      func() time.Time

	pressed     bool
	gesture     gesture.Detector
	dataEnabled bool
}

// New returns a node with reporting enabled. Lines are written to out.
func New(button ButtonReader, imu IMUReader, ranger Ranger, out io.Writer, logger *slog.Logger) *Node {
	return &Node{
		button:      button,
		imu:         imu,
		ranger:      ranger,
		out:         report.NewWriter(out),
		logger:      logger,
		interval:    Interval,
		start:       time.Now(),
		now:         time.Now,
		dataEnabled: true,
	}
}

// AddPublisher registers p to receive readings after each serial line.
func (n *Node) AddPublisher(p Publisher) {
	n.publishers = append(n.publishers, p)
}

// DataEnabled reports the current reporting mode.
func (n *Node) DataEnabled() bool {
	return n.dataEnabled
}

// Run steps immediately and then once per interval until ctx is done.
// Cancellation is the normal way to stop and returns nil.
func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		n.Step()
		select {
		case <-ctx.Done():
			n.logger.Info("node loop stopped", "reason", context.Cause(ctx))
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one loop iteration. With reporting disabled no sensor is touched.
func (n *Node) Step() {
	now := n.now()
	n.pollButton(now)

	if !n.dataEnabled {
		n.emit(report.Reading{Time: now, Button: n.pressed})
		return
	}

	raw, err := n.imu.ReadRaw()
	if err != nil {
		n.logger.Debug("imu read failed", "err", err)
	}
	pose := orientation.FromRaw(raw)

	n.emit(report.Reading{
		Time:         now,
		DataEnabled:  true,
		Roll:         pose.Roll,
		TemperatureC: raw.TemperatureC(),
		Posture:      pose.Posture,
		DistanceCM:   n.ranger.Measure(),
		Button:       n.pressed,
	})
}

// pollButton tracks the button level and feeds press edges to the detector.
func (n *Node) pollButton(now time.Time) {
	current := n.button.Pressed()
	if current == n.pressed {
		return
	}
	n.pressed = current
	if !current {
		return
	}

	if !n.gesture.Press(now.Sub(n.start)) {
		n.logger.Debug("button press", "pending", n.gesture.Count())
		return
	}

	n.dataEnabled = !n.dataEnabled
	n.writeLine(report.ModeLine(n.dataEnabled))
	n.logger.Info("mode changed", "data_enabled", n.dataEnabled)

	ev := report.ModeEvent{Time: now, DataEnabled: n.dataEnabled}
	for _, p := range n.publishers {
		if err := p.PublishMode(ev); err != nil {
			n.logger.Warn("publish mode failed", "err", err)
		}
	}
}

func (n *Node) emit(r report.Reading) {
	n.writeLine(r.Line())
	for _, p := range n.publishers {
		if err := p.PublishReading(r); err != nil {
			n.logger.Warn("publish reading failed", "err", err)
		}
	}
}

func (n *Node) writeLine(s string) {
	if err := n.out.WriteLine(s); err != nil {
		n.logger.Warn("serial write failed", "err", err)
	}
}
