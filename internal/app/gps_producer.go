package app

import (
	"bufio"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined GPS fixes as JSON to TOPIC_GPS.
func RunGPSProducer() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("GPS serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return publishFixes(port, client, cfg.TopicGPS)
}

// publishFixes reads NMEA lines from r and publishes the fix after every
// RMC sentence. It returns when r fails or hits EOF.
func publishFixes(r io.Reader, pub Publisher, topic string) error {
	reader := bufio.NewReader(r)

	var current gps.Fix
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			changed, perr := current.Update(line)
			switch {
			case perr != nil:
				// noisy GPS or partial sentences
			case changed:
				if err := publishJSON(pub, topic, current); err != nil {
					log.Printf("GPS %v", err)
				} else {
					log.Printf("published GPS fix: %+v", current)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			log.Printf("GPS read error: %v", err)
			return err
		}
	}
}
