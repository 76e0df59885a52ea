package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Button is an active-low push button on a pulled-up input. There is no
// debounce; a bouncing contact shows up as extra edges.
type Button struct {
	pin gpio.PinIn
}

// NewButton enables the internal pull-up on pin.
func NewButton(pin gpio.PinIn) (*Button, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button %s: %w", pin, err)
	}
	return &Button{pin: pin}, nil
}

// Pressed samples the pin once.
func (b *Button) Pressed() bool {
	return b.pin.Read() == gpio.Low
}
