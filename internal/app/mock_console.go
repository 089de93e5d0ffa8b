// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/orientation"
	"github.com/relabs-tech/imu6050/internal/sensors"
)

// RunLocalConsole reads the IMU directly, without MQTT, and prints the tilt
// pose every IMU_SAMPLE_INTERVAL. Set IMU_MOCK=true to run it without
// hardware.
func RunLocalConsole(out io.Writer) error {
	cfg := config.Get()

	mgr := sensors.GetIMUManager()
	if err := mgr.Init(); err != nil {
		return err
	}
	defer mgr.Close()

	src := orientation.NewIMUSource(mgr)
	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		pose, err := src.Next()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatPose(pose))
	}
	return nil
}
