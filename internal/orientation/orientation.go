package orientation

import "github.com/relabs-tech/posture_node/internal/imu"

// Posture is the binary posture classification derived from roll.
type Posture string

const (
	Good Posture = "Good"
	Bad  Posture = "Bad"
)

// Roll thresholds in degrees. Anything above badAbove or below badBelow is
// Bad, level included.
const (
	badAbove = -100.0
	badBelow = -200.0
)

// Classify returns Bad when roll > -100 or roll < -200, Good otherwise.
func Classify(roll float64) Posture {
	if roll > badAbove || roll < badBelow {
		return Bad
	}
	return Good
}

// Pose is the orientation derived from a single accelerometer sample.
type Pose struct {
	Roll    float64 `json:"roll"`
	Posture Posture `json:"posture"`
}

// FromRaw computes roll and posture from a raw IMU sample.
func FromRaw(r imu.Raw) Pose {
	roll := r.RollDegrees()
	return Pose{
		Roll:    roll,
		Posture: Classify(roll),
	}
}
