// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	regs "tinygo.org/x/drivers/mpu6050"
)

// BitField describes a group of bits inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is register metadata shown by the register debugger.
type RegisterInfo struct {
	Address     byte       `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// getMPU6050RegisterMap returns metadata for the MPU-6050 registers the
// debugger exposes.
func getMPU6050RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Configuration
		{Address: regs.SMPLRT_DIV, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: regs.CONFIG, Name: "CONFIG", Description: "Configuration (FSYNC, DLPF)", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=260Hz, 1=184Hz, 2=94Hz, 3=44Hz, 4=21Hz, 5=10Hz, 6=5Hz"},
			}},
		{Address: regs.GYRO_CONFIG, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XG_ST", Description: "X Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YG_ST", Description: "Y Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZG_ST", Description: "Z Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Address: regs.ACCEL_CONFIG, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XA_ST", Description: "X Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YA_ST", Description: "Y Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZA_ST", Description: "Z Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: regs.FIFO_EN, Name: "FIFO_EN", Description: "FIFO Enable", Access: "RW", Default: "0x00"},

		// Interrupts
		{Address: regs.INT_PIN_CFG, Name: "INT_PIN_CFG", Description: "INT Pin / Bypass Enable Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
				{Bits: "6", Name: "INT_OPEN", Description: "INT pin open drain", Values: "0=Push-pull, 1=Open drain"},
				{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch until cleared"},
				{Bits: "4", Name: "INT_RD_CLEAR", Description: "Clear INT on any read", Values: "0=Status read only, 1=Any read"},
				{Bits: "1", Name: "I2C_BYPASS_EN", Description: "Auxiliary I2C bypass", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: regs.INT_ENABLE, Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "FIFO_OFLOW_EN", Description: "FIFO overflow interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "I2C_MST_INT_EN", Description: "I2C master interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "DATA_RDY_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: regs.INT_STATUS, Name: "INT_STATUS", Description: "Interrupt Status", Access: "R", Default: "0x00"},

		// Sensor data
		{Address: regs.ACCEL_XOUT_H, Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: regs.ACCEL_XOUT_L, Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: regs.ACCEL_YOUT_H, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: regs.ACCEL_YOUT_L, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: regs.ACCEL_ZOUT_H, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Address: regs.ACCEL_ZOUT_L, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: regs.TEMP_OUT_H, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: regs.TEMP_OUT_L, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: regs.GYRO_XOUT_H, Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: regs.GYRO_XOUT_L, Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: regs.GYRO_YOUT_H, Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: regs.GYRO_YOUT_L, Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: regs.GYRO_ZOUT_H, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: regs.GYRO_ZOUT_L, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

		// Control
		{Address: regs.SIGNAL_PATH_RES, Name: "SIGNAL_PATH_RESET", Description: "Signal Path Reset", Access: "W", Default: "0x00",
			BitFields: []BitField{
				{Bits: "2", Name: "GYRO_RESET", Description: "Reset gyro signal path", Values: "1=Reset"},
				{Bits: "1", Name: "ACCEL_RESET", Description: "Reset accel signal path", Values: "1=Reset"},
				{Bits: "0", Name: "TEMP_RESET", Description: "Reset temperature signal path", Values: "1=Reset"},
			}},
		{Address: regs.USER_CTRL, Name: "USER_CTRL", Description: "User Control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "I2C_MST_EN", Description: "Enable I2C Master", Values: "0=Disabled, 1=Enabled"},
				{Bits: "2", Name: "FIFO_RESET", Description: "Reset FIFO", Values: "1=Reset"},
				{Bits: "0", Name: "SIG_COND_RESET", Description: "Reset signal paths and sensor registers", Values: "1=Reset"},
			}},
		{Address: regs.PWR_MGMT_1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: "0x40",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset device"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle mode", Values: "0=Disabled, 1=Cycle"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL X gyro"},
			}},
		{Address: regs.PWR_MGMT_2, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW", Default: "0x00"},
		{Address: regs.FIFO_COUNTH, Name: "FIFO_COUNTH", Description: "FIFO Count High Byte", Access: "R"},
		{Address: regs.FIFO_COUNTL, Name: "FIFO_COUNTL", Description: "FIFO Count Low Byte", Access: "R"},
		{Address: regs.WHO_AM_I, Name: "WHO_AM_I", Description: "Device identity", Access: "R", Default: "0x68"},
	}
}
