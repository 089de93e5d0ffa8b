package app

import (
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/orientation"
	"github.com/relabs-tech/imu6050/internal/sensors"
)

// RunIMUProducer samples the MPU-6050 every IMU_SAMPLE_INTERVAL and
// publishes the raw sample and the tilt pose until the process exits.
func RunIMUProducer() error {
	log.Println("starting MPU-6050 producer")

	cfg := config.Get()

	imuManager := sensors.GetIMUManager()
	if err := imuManager.Init(); err != nil {
		return fmt.Errorf("initialize IMU manager: %w", err)
	}
	defer imuManager.Close()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	p := &imuProducer{
		src:   imuManager,
		pub:   client,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
	}
	p.run(nil)
	return nil
}

type imuProducer struct {
	src   imu.IMURawSource
	pub   Publisher
	cfg   *config.Config
	clock clockwork.Clock

	lastLog time.Time
	count   int
	errors  int
}

// run ticks until stop is closed. A nil stop runs forever.
func (p *imuProducer) run(stop <-chan struct{}) {
	ticker := p.clock.NewTicker(time.Duration(p.cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			p.tick()
		}
	}
}

// tick reads and publishes one sample. Failures are logged and the sample
// is skipped.
func (p *imuProducer) tick() {
	raw, err := p.src.NextRaw()
	if err != nil {
		p.errors++
		log.Printf("IMU read error: %v", err)
		return
	}

	pose := orientation.FromIMURaw(raw)

	if err := publishJSON(p.pub, p.cfg.TopicIMU, raw); err != nil {
		p.errors++
		log.Printf("MQTT %v", err)
		return
	}
	if err := publishJSON(p.pub, p.cfg.TopicPose, pose); err != nil {
		p.errors++
		log.Printf("MQTT %v", err)
		return
	}
	p.count++

	now := p.clock.Now()
	if now.Sub(p.lastLog) < time.Duration(p.cfg.ConsoleLogInterval)*time.Millisecond {
		return
	}
	p.lastLog = now
	log.Printf("%s tick: %d published, %d errors | pose R=%.2f P=%.2f | accel ax=%d ay=%d az=%d | gyro gx=%d gy=%d gz=%d | %.1f°C",
		now.Format(time.RFC3339),
		p.count, p.errors,
		pose.Roll, pose.Pitch,
		raw.Ax, raw.Ay, raw.Az,
		raw.Gx, raw.Gy, raw.Gz,
		raw.TempC,
	)
}
