package orientation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/imu6050/internal/imu"
)

const tolerance = 1e-6

func TestComputePoseFromAccel(t *testing.T) {
	tests := []struct {
		name        string
		ax, ay, az  float64
		roll, pitch float64
	}{
		{"level", 0, 0, 16384, 0, 0},
		{"rolled right 90", 0, 16384, 0, 90, 0},
		{"nose up 90", -16384, 0, 0, 0, 90},
		{"nose down 45", 1, 0, 1, 0, -45},
		{"upside down", 0, 0, -16384, 180, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputePoseFromAccel(tt.ax, tt.ay, tt.az)
			if math.Abs(p.Roll-tt.roll) > tolerance || math.Abs(p.Pitch-tt.pitch) > tolerance {
				t.Errorf("pose = %+v, want roll %.1f pitch %.1f", p, tt.roll, tt.pitch)
			}
			if p.Yaw != 0 {
				t.Errorf("yaw = %f, want 0", p.Yaw)
			}
		})
	}
}

func TestFromIMURaw(t *testing.T) {
	p := FromIMURaw(imu.IMURaw{Ay: 1000, Az: 1000})
	if math.Abs(p.Roll-45) > tolerance {
		t.Errorf("roll = %f, want 45", p.Roll)
	}
}

type rawFunc func() (imu.IMURaw, error)

func (f rawFunc) NextRaw() (imu.IMURaw, error) { return f() }

func TestIMUSource(t *testing.T) {
	src := NewIMUSource(rawFunc(func() (imu.IMURaw, error) {
		return imu.IMURaw{Ax: -1000, Az: 1000}, nil
	}))
	p, err := src.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if math.Abs(p.Pitch-45) > tolerance || math.Abs(p.Roll) > tolerance {
		t.Errorf("pose = %+v, want pitch 45", p)
	}

	boom := errors.New("bus down")
	src = NewIMUSource(rawFunc(func() (imu.IMURaw, error) { return imu.IMURaw{}, boom }))
	if _, err := src.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want wrapped %v", err, boom)
	}
}

func TestMockSourceFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := NewMockSource(clock)

	p, _ := src.Next()
	if math.Abs(p.Roll) > tolerance || math.Abs(p.Pitch-15) > tolerance {
		t.Errorf("pose at t=0 = %+v, want roll 0 pitch 15", p)
	}

	half := math.Pi / 2
	clock.Advance(time.Duration(half * float64(time.Second)))
	p, _ = src.Next()
	if math.Abs(p.Roll-20) > 1e-3 {
		t.Errorf("roll at t=pi/2 = %f, want 20", p.Roll)
	}
}

func TestMockRates(t *testing.T) {
	roll, pitch := MockRates(0)
	if roll != 20 || pitch != 0 {
		t.Errorf("MockRates(0) = %f, %f; want 20, 0", roll, pitch)
	}
}
