package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMU  string
	TopicPose string
	TopicGPS  string

	// IMU hardware
	I2CBus  string // periph bus name; empty selects the first registered bus
	IMUMock bool   // use the simulated bus instead of real hardware

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Timing
	IMUSampleInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web servers
	WebServerPort     int
	RegisterDebugPort int

	// RegisterDebugAllowedRanges limits which registers the debugger may
	// write. Empty means the debugger is read-only.
	RegisterDebugAllowedRanges []RegisterRange

	// Display
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // "imu_raw", "orientation" or "gps"
}

// Defaults applied before the file is read.
const (
	DefaultTopicIMU  = "inertial/imu"
	DefaultTopicPose = "inertial/pose"
	DefaultTopicGPS  = "inertial/gps"

	DefaultWebServerPort         = 8080
	DefaultRegisterDebugPort     = 8081
	DefaultConsoleLogInterval    = 1000
	DefaultDisplayUpdateInterval = 500
	DefaultGPSBaudRate           = 9600
)

// Package-level singleton state. Other packages go through InitGlobal and
// Get so every access happens under configMu.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func defaults() *Config {
	return &Config{
		MQTTClientIDProducer:  "imu-producer",
		MQTTClientIDGPS:       "gps-producer",
		MQTTClientIDConsole:   "imu-console",
		MQTTClientIDWeb:       "imu-web",
		MQTTClientIDDisplay:   "imu-display",
		TopicIMU:              DefaultTopicIMU,
		TopicPose:             DefaultTopicPose,
		TopicGPS:              DefaultTopicGPS,
		GPSBaudRate:           DefaultGPSBaudRate,
		ConsoleLogInterval:    DefaultConsoleLogInterval,
		WebServerPort:         DefaultWebServerPort,
		RegisterDebugPort:     DefaultRegisterDebugPort,
		DisplayUpdateInterval: DefaultDisplayUpdateInterval,
		DisplayContent:        "imu_raw",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func atoi(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// IMU hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_MOCK":
		c.IMUMock, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_MOCK %q: %w", value, err)
		}

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = atoi(key, value)

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = atoi(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = atoi(key, value)

	// Web servers
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoi(key, value)
	case "REGISTER_DEBUG_PORT":
		c.RegisterDebugPort, err = atoi(key, value)
	case "REGISTER_DEBUG_ALLOWED_RANGES":
		c.RegisterDebugAllowedRanges, err = ParseRegisterRanges(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_ALLOWED_RANGES: %w", err)
		}

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoi(key, value)
	case "DISPLAY_CONTENT":
		switch value {
		case "imu_raw", "orientation", "gps":
			c.DisplayContent = value
		default:
			return fmt.Errorf("DISPLAY_CONTENT must be imu_raw, orientation or gps, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL is required")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive, got %d", c.ConsoleLogInterval)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
