package orientation

import (
	"math"

	"github.com/relabs-tech/imu6050/internal/imu"
)

// Pose is the canonical representation of orientation for the app.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is always 0; there is no magnetometer on the MPU-6050.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromIMURaw computes the tilt pose of a raw sample. Units cancel out, so
// raw counts are fine.
func FromIMURaw(r imu.IMURaw) Pose {
	return ComputePoseFromAccel(float64(r.Ax), float64(r.Ay), float64(r.Az))
}
