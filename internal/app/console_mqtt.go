package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/gps"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/orientation"
)

func formatPose(p orientation.Pose) string {
	return fmt.Sprintf("[POSE]  ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f", p.Roll, p.Pitch, p.Yaw)
}

func formatIMU(s imu.IMURaw) string {
	return fmt.Sprintf("[IMU ]  ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  temp=%5.1f°C",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, s.TempC)
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf("[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity)
}

// RunConsoleMQTT prints everything the producers publish until SIGINT or
// SIGTERM.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicPose, "console", func(p orientation.Pose) {
		fmt.Println(formatPose(p))
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicIMU, "console", func(s imu.IMURaw) {
		fmt.Println(formatIMU(s))
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGPS, "console", func(f gps.Fix) {
		fmt.Println(formatFix(f))
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}
