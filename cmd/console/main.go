// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/imu6050/internal/app"
	"github.com/relabs-tech/imu6050/internal/config"
)

func main() {
	configPath := flag.String("config", "./imu_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting MPU-6050 local console")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunLocalConsole(os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
