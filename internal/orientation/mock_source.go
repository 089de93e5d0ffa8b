// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// MockMotion is a smooth rocking motion: roll swings ±20°, pitch ±15°.
// Yaw stays 0 because nothing downstream can observe it.
func MockMotion(elapsed time.Duration) Pose {
	s := elapsed.Seconds()
	return Pose{
		Roll:  20 * math.Sin(s),
		Pitch: 15 * math.Cos(s*0.7),
	}
}

// MockRates returns the angular rates of MockMotion in degrees per second
// (roll rate, pitch rate).
func MockRates(elapsed time.Duration) (float64, float64) {
	s := elapsed.Seconds()
	return 20 * math.Cos(s), -15 * 0.7 * math.Sin(s*0.7)
}

type mockSource struct {
	clock clockwork.Clock
	start time.Time
}

// NewMockSource creates a mock orientation source that
// generates smooth changing values.
func NewMockSource(clock clockwork.Clock) Source {
	return &mockSource{clock: clock, start: clock.Now()}
}

func (m *mockSource) Next() (Pose, error) {
	return MockMotion(m.clock.Since(m.start)), nil
}
