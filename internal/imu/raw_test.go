package imu

import (
	"math"
	"testing"
)

func TestRollDegrees(t *testing.T) {
	tests := []struct {
		name   string
		ay, az int16
		want   float64
	}{
		{name: "45 degrees", ay: 16384, az: 16384, want: 45},
		{name: "flat", ay: 0, az: 16384, want: 0},
		{name: "on side", ay: 16384, az: 0, want: 90},
		{name: "upside down negative y", ay: -1, az: -16384, want: -179.9965029431},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Raw{Ay: tt.ay, Az: tt.az}.RollDegrees()
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("RollDegrees() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRollDegrees_IgnoresX(t *testing.T) {
	a := Raw{Ax: 0, Ay: 1000, Az: 2000}.RollDegrees()
	b := Raw{Ax: 12345, Ay: 1000, Az: 2000}.RollDegrees()
	if a != b {
		t.Errorf("roll depends on X: %v vs %v", a, b)
	}
}

func TestTemperatureC(t *testing.T) {
	if got := (Raw{TempRaw: 0}).TemperatureC(); got != 36.53 {
		t.Errorf("TemperatureC(0) = %v, want 36.53", got)
	}
	if got := (Raw{TempRaw: -3400}).TemperatureC(); math.Abs(got-26.53) > 1e-9 {
		t.Errorf("TemperatureC(-3400) = %v, want 26.53", got)
	}
}
