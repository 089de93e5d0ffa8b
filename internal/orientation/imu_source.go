package orientation

import (
	"fmt"

	"github.com/relabs-tech/imu6050/internal/imu"
)

type imuSource struct {
	raw imu.IMURawSource
}

// NewIMUSource returns a Source that reads raw samples from raw and turns
// them into an accelerometer-only tilt estimate.
func NewIMUSource(raw imu.IMURawSource) Source {
	return &imuSource{raw: raw}
}

func (s *imuSource) Next() (Pose, error) {
	r, err := s.raw.NextRaw()
	if err != nil {
		return Pose{}, fmt.Errorf("imu source: %w", err)
	}
	return FromIMURaw(r), nil
}
