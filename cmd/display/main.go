package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/imu6050/internal/app"
	"github.com/relabs-tech/imu6050/internal/config"
)

func main() {
	configPath := flag.String("config", "./imu_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting SSD1306 display (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
