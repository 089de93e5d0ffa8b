package sensors

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/mpu6050"
	"github.com/relabs-tech/imu6050/internal/wire"
)

// SourceName tags every IMURaw produced by the manager.
const SourceName = "mpu6050"

// ErrIMUUnavailable is returned when no device has been brought up.
var ErrIMUUnavailable = errors.New("IMU not available")

// IMUManager owns the bus and the MPU-6050 on it. Every method takes the
// same lock, so one bus transaction runs at a time.
type IMUManager struct {
	initMu    sync.Mutex // serializes Init so only one bus gets opened
	mu        sync.Mutex
	bus       i2c.BusCloser
	dev       *mpu6050.Device
	available bool
	now       func() time.Time
	open      func(*config.Config) (i2c.BusCloser, error)
}

var (
	imuManager     *IMUManager
	imuManagerOnce sync.Once
)

// GetIMUManager returns the process-wide manager.
func GetIMUManager() *IMUManager {
	imuManagerOnce.Do(func() {
		imuManager = NewIMUManager()
	})
	return imuManager
}

// NewIMUManager returns a manager with no bus attached.
func NewIMUManager() *IMUManager {
	return &IMUManager{now: time.Now, open: openBus}
}

// Init opens the bus described by the global config and brings the device
// up. Calling it again after success is a no-op.
func (m *IMUManager) Init() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.IsAvailable() {
		return nil
	}

	cfg := config.Get()
	if cfg == nil {
		return errors.New("IMU: config not initialized")
	}
	bus, err := m.open(cfg)
	if err != nil {
		return err
	}
	return m.Attach(bus)
}

// Attach brings the device up on an already open bus. The manager takes
// ownership of bus and closes it in Close. If the device does not wake,
// bus is closed and the manager is left empty.
func (m *IMUManager) Attach(bus i2c.BusCloser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bus != nil && m.bus != bus {
		m.bus.Close()
	}
	m.bus = nil
	m.dev = nil
	m.available = false

	dev := mpu6050.New(wire.New(bus))
	if err := dev.Init(); err != nil {
		bus.Close()
		return fmt.Errorf("IMU: wake: %w", err)
	}
	m.bus = bus
	m.dev = dev

	id, err := m.dev.WhoAmI()
	switch {
	case err != nil:
		log.Printf("IMU: WARNING: failed to read WHO_AM_I: %v", err)
	case id != mpu6050.Address:
		log.Printf("IMU: WARNING: WHO_AM_I = 0x%02X, expected 0x%02X", id, mpu6050.Address)
	default:
		log.Printf("IMU: MPU-6050 ready on %s (WHO_AM_I = 0x%02X)", bus, id)
	}

	m.available = true
	return nil
}

// IsAvailable reports whether the device was brought up successfully.
func (m *IMUManager) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// ReadIMU reads one sample.
func (m *IMUManager) ReadIMU() (imu.IMURaw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return imu.IMURaw{}, ErrIMUUnavailable
	}
	s, err := m.dev.ReadSample()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU: read sample: %w", err)
	}
	return imu.FromSample(SourceName, m.now(), s), nil
}

// NextRaw makes the manager an imu.IMURawSource.
func (m *IMUManager) NextRaw() (imu.IMURaw, error) {
	return m.ReadIMU()
}

// ReadRegister reads a single register.
func (m *IMUManager) ReadRegister(addr byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev == nil {
		return 0, ErrIMUUnavailable
	}
	return m.dev.ReadReg(addr)
}

// WriteRegister writes a single register.
func (m *IMUManager) WriteRegister(addr, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev == nil {
		return ErrIMUUnavailable
	}
	return m.dev.WriteReg(addr, value)
}

// ReadAllRegisters reads every register in the register map.
func (m *IMUManager) ReadAllRegisters() (map[byte]byte, error) {
	return m.readRegisters(func(RegisterInfo) bool { return true })
}

// ExportRegisterConfig reads the writable registers, i.e. the ones that
// describe the device configuration.
func (m *IMUManager) ExportRegisterConfig() (map[byte]byte, error) {
	return m.readRegisters(func(r RegisterInfo) bool { return r.Access == "RW" })
}

func (m *IMUManager) readRegisters(keep func(RegisterInfo) bool) (map[byte]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev == nil {
		return nil, ErrIMUUnavailable
	}
	out := make(map[byte]byte)
	for _, r := range getMPU6050RegisterMap() {
		if !keep(r) {
			continue
		}
		v, err := m.dev.ReadReg(r.Address)
		if err != nil {
			return nil, fmt.Errorf("IMU: read %s: %w", r.Name, err)
		}
		out[r.Address] = v
	}
	return out, nil
}

// Reinitialize wakes the device again, e.g. after a register write put it
// back to sleep.
func (m *IMUManager) Reinitialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev == nil {
		return ErrIMUUnavailable
	}
	if err := m.dev.Init(); err != nil {
		m.available = false
		return fmt.Errorf("IMU: reinitialize: %w", err)
	}
	m.available = true
	log.Println("IMU: reinitialized")
	return nil
}

// GetRegisterMap returns the register metadata used by the debugger.
func (m *IMUManager) GetRegisterMap() []RegisterInfo {
	return getMPU6050RegisterMap()
}

// Close releases the bus.
func (m *IMUManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.available = false
	m.dev = nil
	if m.bus == nil {
		return nil
	}
	err := m.bus.Close()
	m.bus = nil
	return err
}
