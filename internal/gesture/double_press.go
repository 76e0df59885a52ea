// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture recognises a double press on a single push button.
package gesture

import "time"

// Window is the largest gap between two presses that still counts as a
// double press.
const Window = 500 * time.Millisecond

// Detector pairs press edges. A completed pair resets the count, so a third
// quick press starts a new pair instead of re-triggering.
type Detector struct {
	lastPress time.Duration
	count     int
	seen      bool
}

// Press records a press edge at the given time since boot and reports
// whether it completed a double press.
func (d *Detector) Press(at time.Duration) bool {
	if d.seen && at-d.lastPress <= Window {
		d.count++
	} else {
		d.count = 1
	}
	d.lastPress = at
	d.seen = true

	if d.count == 2 {
		d.count = 0
		return true
	}
	return false
}

// Count returns the number of presses in the pending pair.
func (d *Detector) Count() int {
	return d.count
}
