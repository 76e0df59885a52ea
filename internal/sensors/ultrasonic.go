package sensors

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// speedOfSoundCMPerUS is the speed of sound in air at room temperature.
	speedOfSoundCMPerUS = 0.034

	// DefaultEchoTimeout bounds the whole echo measurement.
	DefaultEchoTimeout = time.Second

	triggerSettle = 2 * time.Microsecond
	triggerPulse  = 10 * time.Microsecond
)

// Ultrasonic drives an HC-SR04 style trigger/echo pair.
type Ultrasonic struct {
	trig    gpio.PinOut
	echo    gpio.PinIn
	timeout time.Duration
	logger  *slog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewUltrasonic drives trig low and arms edge detection on echo.
func NewUltrasonic(trig gpio.PinOut, echo gpio.PinIn, timeout time.Duration) (*Ultrasonic, error) {
	if timeout <= 0 {
		timeout = DefaultEchoTimeout
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("ultrasonic trigger %s: %w", trig, err)
	}
	// Floating input: the HC-SR04 drives the echo line itself.
	if err := echo.In(gpio.Float, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("ultrasonic echo %s: %w", echo, err)
	}
	return &Ultrasonic{
		trig:    trig,
		echo:    echo,
		timeout: timeout,
		logger:  slog.Default(),
		now:     time.Now,
		sleep:   time.Sleep,
	}, nil
}

// Measure fires one ping and returns the distance in centimetres, or 0 when
// no complete echo pulse arrives within the timeout.
func (u *Ultrasonic) Measure() int64 {
	d, ok := u.pulse()
	if !ok {
		return 0
	}
	return DistanceCM(d)
}

// DistanceCM converts a round-trip echo time to a one-way distance,
// truncated to whole centimetres.
func DistanceCM(d time.Duration) int64 {
	return int64(float64(d.Microseconds()) * speedOfSoundCMPerUS / 2)
}

func (u *Ultrasonic) trigger() error {
	errLow := u.trig.Out(gpio.Low)
	u.sleep(triggerSettle)
	errHigh := u.trig.Out(gpio.High)
	u.sleep(triggerPulse)
	errEnd := u.trig.Out(gpio.Low)
	return errors.Join(errLow, errHigh, errEnd)
}

// pulse measures the next high pulse on echo, skipping one already in
// progress.
func (u *Ultrasonic) pulse() (time.Duration, bool) {
	if err := u.trigger(); err != nil {
		// No ping went out, so there is nothing to wait for.
		u.logger.Debug("ultrasonic trigger failed", "pin", u.trig.String(), "err", err)
		return 0, false
	}
	deadline := u.now().Add(u.timeout)

	for u.echo.Read() == gpio.High {
		if !u.waitEdge(deadline) {
			return 0, false
		}
	}
	for u.echo.Read() == gpio.Low {
		if !u.waitEdge(deadline) {
			return 0, false
		}
	}
	start := u.now()
	for u.echo.Read() == gpio.High {
		if !u.waitEdge(deadline) {
			return 0, false
		}
	}
	return u.now().Sub(start), true
}

func (u *Ultrasonic) waitEdge(deadline time.Time) bool {
	remaining := deadline.Sub(u.now())
	if remaining <= 0 {
		return false
	}
	return u.echo.WaitForEdge(remaining)
}
