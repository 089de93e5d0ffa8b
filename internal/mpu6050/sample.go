package mpu6050

// SampleSize is the length of the ACCEL_XOUT_H..GYRO_ZOUT_L register block.
const SampleSize = 14

// Raw is the sensor register block as it arrives on the wire: seven
// big-endian 16-bit fields.
type Raw [SampleSize]byte

// Sample holds one decoded reading in raw sensor counts.
type Sample struct {
	AccelX int16
	AccelY int16
	AccelZ int16

	// Temp is the raw temperature count; see imu.TempCelsius.
	Temp int16

	GyroX int16
	GyroY int16
	GyroZ int16
}

// Decode converts the register block into host-order values.
func Decode(raw Raw) Sample {
	field := func(i int) int16 {
		return int16(uint16(raw[2*i])<<8 | uint16(raw[2*i+1]))
	}
	return Sample{
		AccelX: field(0),
		AccelY: field(1),
		AccelZ: field(2),
		Temp:   field(3),
		GyroX:  field(4),
		GyroY:  field(5),
		GyroZ:  field(6),
	}
}
