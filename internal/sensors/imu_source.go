// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu6050/internal/config"
)

// openBus opens the I²C bus the MPU-6050 hangs off, or the simulated bus
// when IMU_MOCK is set.
func openBus(cfg *config.Config) (i2c.BusCloser, error) {
	if cfg.IMUMock {
		log.Println("IMU: using simulated MPU-6050 bus")
		return NewSimBus(clockwork.NewRealClock()), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		name := cfg.I2CBus
		if name == "" {
			name = "<first>"
		}
		return nil, fmt.Errorf("IMU: open I2C bus %s: %w", name, err)
	}
	log.Printf("IMU: opened I2C bus %s", bus)
	return bus, nil
}
