package imu

import (
	"time"

	"github.com/relabs-tech/imu6050/internal/mpu6050"
)

// IMURaw represents a single raw MPU-6050 sample as published on MQTT.
type IMURaw struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	TempRaw int16   `json:"temp_raw"`
	TempC   float64 `json:"temp_c"`
}

// IMURawSource is anything that yields raw samples.
type IMURawSource interface {
	NextRaw() (IMURaw, error)
}

// FromSample converts a decoded register block into an IMURaw.
func FromSample(source string, t time.Time, s mpu6050.Sample) IMURaw {
	return IMURaw{
		Source:  source,
		Time:    t,
		Ax:      s.AccelX,
		Ay:      s.AccelY,
		Az:      s.AccelZ,
		Gx:      s.GyroX,
		Gy:      s.GyroY,
		Gz:      s.GyroZ,
		TempRaw: s.Temp,
		TempC:   TempCelsius(s.Temp),
	}
}

// TempCelsius converts a raw MPU-6050 temperature count to °C
// (datasheet: 340 LSB/°C, 36.53 °C at zero).
func TempCelsius(raw int16) float64 {
	return (float64(raw) + 12412.0) / 340.0
}
