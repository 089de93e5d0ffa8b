// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mpu6050 reads and writes MPU-6050 registers over a two-wire bus and
// decodes the accelerometer, temperature and gyroscope block.
//
// A Device is not safe for concurrent use: each call assumes exclusive,
// uninterrupted ownership of the bus until it returns.
package mpu6050

import (
	tinympu "tinygo.org/x/drivers/mpu6050"

	"github.com/relabs-tech/imu6050/internal/wire"
)

// Register map constants.
const (
	Address = tinympu.Address // AD0 low

	RegAccelXOutH = tinympu.ACCEL_XOUT_H
	RegPwrMgmt1   = tinympu.PWR_MGMT_1
	RegWhoAmI     = tinympu.WHO_AM_I
)

const (
	opRead  = "read"
	opWrite = "write"
)

// Device is an MPU-6050 at the fixed Address.
type Device struct {
	w wire.Wire
}

// New returns a Device talking through w. It does not touch the bus.
func New(w wire.Wire) *Device {
	return &Device{w: w}
}

// Read fills buf with len(buf) consecutive registers starting at start.
//
// The address phase ends without releasing the bus so the data phase follows
// with a repeated start; the register pointer only auto-increments inside one
// uninterrupted transaction.
func (d *Device) Read(start byte, buf []byte) error {
	d.w.BeginTransmission(Address)
	if n := d.w.Write([]byte{start}); n != 1 {
		return &Error{Op: opRead, Kind: AddressWriteError, Reg: start}
	}
	if status := d.w.EndTransmission(false); status != wire.StatusOK {
		return &Error{Op: opRead, Kind: BusError, Reg: start, Status: status}
	}

	d.w.RequestFrom(Address, len(buf), true)
	i := 0
	for d.w.Available() > 0 && i < len(buf) {
		buf[i] = d.w.Next()
		i++
	}
	if i != len(buf) {
		return &Error{Op: opRead, Kind: ShortReadError, Reg: start, Want: len(buf), Got: i}
	}
	return nil
}

// Write stores data into consecutive registers starting at start and
// releases the bus.
func (d *Device) Write(start byte, data []byte) error {
	d.w.BeginTransmission(Address)
	if n := d.w.Write([]byte{start}); n != 1 {
		return &Error{Op: opWrite, Kind: AddressWriteError, Reg: start}
	}
	if n := d.w.Write(data); n != len(data) {
		return &Error{Op: opWrite, Kind: PayloadWriteError, Reg: start, Want: len(data), Got: n}
	}
	if status := d.w.EndTransmission(true); status != wire.StatusOK {
		return &Error{Op: opWrite, Kind: BusError, Reg: start, Status: status}
	}
	return nil
}

// WriteReg writes a single register.
func (d *Device) WriteReg(reg, value byte) error {
	return d.Write(reg, []byte{value})
}

// ReadReg reads a single register.
func (d *Device) ReadReg(reg byte) (byte, error) {
	var b [1]byte
	err := d.Read(reg, b[:])
	return b[0], err
}

// WhoAmI returns the identity register, 0x68 on a genuine part.
func (d *Device) WhoAmI() (byte, error) {
	return d.ReadReg(RegWhoAmI)
}

// Init wakes the device from its power-on sleep state. Nothing is read back.
func (d *Device) Init() error {
	return d.WriteReg(RegPwrMgmt1, 0)
}

// ReadSample reads the 14-byte sensor block and decodes it.
//
// The block is decoded even when the read fails, so the returned Sample may
// hold zeros for bytes that never arrived. Check the error before using it.
func (d *Device) ReadSample() (Sample, error) {
	var raw Raw
	err := d.Read(RegAccelXOutH, raw[:])
	return Decode(raw), err
}
