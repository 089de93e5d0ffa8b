package sensors

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	regs "tinygo.org/x/drivers/mpu6050"

	"github.com/relabs-tech/imu6050/internal/orientation"
)

const (
	simRegCount = 128

	simAccelLSBPerG   = 16384.0 // ±2 g
	simGyroLSBPerDegS = 131.0   // ±250 °/s
	simTempC          = 25.0

	pwrSleep  = 0x40
	pwrReset  = 0x80
	whoAmIVal = 0x68
)

// ErrBusClosed is returned by a SimBus after Close.
var ErrBusClosed = errors.New("sim bus: closed")

// SimBus is an in-process I²C bus with a single MPU-6050 at regs.Address.
// While the device is awake the data registers track orientation.MockMotion.
type SimBus struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	start  time.Time
	regs   [simRegCount]byte
	ptr    byte
	closed bool
}

// NewSimBus returns a simulated bus whose device has just powered on.
func NewSimBus(clock clockwork.Clock) *SimBus {
	b := &SimBus{clock: clock, start: clock.Now()}
	b.reset()
	return b
}

func (b *SimBus) reset() {
	b.regs = [simRegCount]byte{}
	b.regs[regs.PWR_MGMT_1] = pwrSleep
	b.regs[regs.WHO_AM_I] = whoAmIVal
	b.ptr = 0
}

func (b *SimBus) String() string { return "sim-mpu6050" }

// SetSpeed accepts any frequency.
func (b *SimBus) SetSpeed(f physic.Frequency) error { return nil }

func (b *SimBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Tx implements i2c.Bus. The first written byte sets the register pointer,
// further bytes are stored at consecutive registers, and reads continue from
// the pointer. The pointer wraps inside the register file.
func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if addr != regs.Address {
		return fmt.Errorf("sim bus: no device at 0x%02X", addr)
	}

	if len(w) > 0 {
		b.ptr = w[0] % simRegCount
		for _, v := range w[1:] {
			b.store(b.ptr, v)
			if b.ptr == regs.PWR_MGMT_1 && v&pwrReset != 0 {
				b.reset()
				return nil
			}
			b.ptr = (b.ptr + 1) % simRegCount
		}
	}

	if len(r) > 0 {
		if b.regs[regs.PWR_MGMT_1]&pwrSleep == 0 {
			b.refresh()
		}
		for i := range r {
			r[i] = b.regs[b.ptr]
			b.ptr = (b.ptr + 1) % simRegCount
		}
	}
	return nil
}

// store ignores writes to read-only registers.
func (b *SimBus) store(reg, v byte) {
	switch {
	case reg == regs.WHO_AM_I:
	case reg >= regs.ACCEL_XOUT_H && reg <= regs.GYRO_ZOUT_L:
	default:
		b.regs[reg] = v
	}
}

// refresh writes the current synthetic reading into the data registers.
func (b *SimBus) refresh() {
	elapsed := b.clock.Since(b.start)
	pose := orientation.MockMotion(elapsed)
	rollRate, pitchRate := orientation.MockRates(elapsed)

	roll := pose.Roll * math.Pi / 180
	pitch := pose.Pitch * math.Pi / 180

	values := [7]float64{
		-math.Sin(pitch) * simAccelLSBPerG,
		math.Cos(pitch) * math.Sin(roll) * simAccelLSBPerG,
		math.Cos(pitch) * math.Cos(roll) * simAccelLSBPerG,
		simTempC*340 - 12412,
		rollRate * simGyroLSBPerDegS,
		pitchRate * simGyroLSBPerDegS,
		0,
	}
	for i, v := range values {
		n := uint16(int16(math.Round(v)))
		b.regs[regs.ACCEL_XOUT_H+2*i] = byte(n >> 8)
		b.regs[regs.ACCEL_XOUT_H+2*i+1] = byte(n)
	}
}

var _ i2c.BusCloser = (*SimBus)(nil)
