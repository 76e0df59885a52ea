package imu

import "math"

const (
	// AccelLSBPerG is the accelerometer sensitivity at the ±2g power-on range.
	AccelLSBPerG = 16384.0

	tempLSBPerDegC = 340.0
	tempOffsetDegC = 36.53
)

// Raw represents one raw MPU-6050 sample.
type Raw struct {
	Ax int16 `json:"ax"` // read but not used for posture
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	TempRaw int16 `json:"temp_raw"`
}

// RollDegrees returns the roll angle around the X axis from the Y and Z
// acceleration components.
func (r Raw) RollDegrees() float64 {
	return math.Atan2(float64(r.Ay)/AccelLSBPerG, float64(r.Az)/AccelLSBPerG) * 180 / math.Pi
}

// TemperatureC converts the die temperature register to degrees Celsius.
func (r Raw) TemperatureC() float64 {
	return float64(r.TempRaw)/tempLSBPerDegC + tempOffsetDegC
}
