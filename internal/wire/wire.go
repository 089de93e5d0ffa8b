// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package wire provides the two-wire bus primitives the MPU-6050 driver is
// written against: begin a transmission, queue bytes, end it while holding or
// releasing the bus, request bytes and drain them one by one.
//
// TxWire implements them on top of a combined write-then-read bus transaction,
// which is what Linux i2c-dev (periph.io) and TinyGo's machine.I2C expose.
package wire

import (
	"tinygo.org/x/drivers"
)

// BufferSize is the capacity of the transmit and receive buffers.
const BufferSize = 32

// End-of-transmission status codes.
const (
	StatusOK       = 0
	StatusTooLong  = 1 // data too long to fit in the transmit buffer
	StatusAddrNACK = 2
	StatusDataNACK = 3
	StatusOther    = 4
)

// Wire is a single-owner two-wire bus.
type Wire interface {
	// BeginTransmission starts queueing a write to the device at addr.
	BeginTransmission(addr uint16)
	// Write queues p and returns how many bytes were accepted.
	Write(p []byte) int
	// EndTransmission sends the queued bytes. When release is false the bus
	// is held so the next request is issued with a repeated start.
	EndTransmission(release bool) int
	// RequestFrom reads up to n bytes from addr and returns how many arrived.
	RequestFrom(addr uint16, n int, release bool) int
	// Available reports the number of received bytes not yet drained.
	Available() int
	// Next returns the next received byte, or 0 when nothing is available.
	Next() byte
}

// TxWire adapts a drivers.I2C (periph's i2c.Bus satisfies it too) to Wire.
type TxWire struct {
	bus drivers.I2C

	addr     uint16
	tx       []byte
	overflow bool
	inTx     bool

	// held write phase, flushed by the next RequestFrom as one transaction.
	held     bool
	heldAddr uint16
	heldW    []byte

	rx    []byte
	rxPos int

	err error
}

// New returns a TxWire on bus.
func New(bus drivers.I2C) *TxWire {
	return &TxWire{
		bus: bus,
		tx:  make([]byte, 0, BufferSize),
	}
}

// LastError returns the last transport error reported by the bus, if any.
func (w *TxWire) LastError() error {
	return w.err
}

// BeginTransmission implements Wire.
func (w *TxWire) BeginTransmission(addr uint16) {
	if w.held {
		// Nobody consumed the held write phase; send it on its own.
		w.flushHeld()
	}
	w.addr = addr
	w.tx = w.tx[:0]
	w.overflow = false
	w.inTx = true
}

// Write implements Wire.
func (w *TxWire) Write(p []byte) int {
	if !w.inTx {
		return 0
	}
	n := len(p)
	if room := BufferSize - len(w.tx); n > room {
		n = room
		w.overflow = true
	}
	w.tx = append(w.tx, p[:n]...)
	return n
}

// EndTransmission implements Wire.
func (w *TxWire) EndTransmission(release bool) int {
	if !w.inTx {
		return StatusOther
	}
	w.inTx = false
	if w.overflow {
		return StatusTooLong
	}
	if !release {
		w.held = true
		w.heldAddr = w.addr
		w.heldW = append(w.heldW[:0], w.tx...)
		return StatusOK
	}
	if err := w.bus.Tx(w.addr, w.tx, nil); err != nil {
		w.err = err
		return StatusOther
	}
	return StatusOK
}

// RequestFrom implements Wire. The release flag is accepted for symmetry;
// a Tx transaction always ends with a stop condition.
func (w *TxWire) RequestFrom(addr uint16, n int, release bool) int {
	w.rx = w.rx[:0]
	w.rxPos = 0
	if n > BufferSize {
		n = BufferSize
	}
	if n <= 0 {
		w.held = false
		return 0
	}

	var pre []byte
	if w.held && w.heldAddr == addr {
		pre = w.heldW
		w.held = false
	} else if w.held {
		w.flushHeld()
	}

	buf := make([]byte, n)
	if err := w.bus.Tx(addr, pre, buf); err != nil {
		w.err = err
		return 0
	}
	w.rx = append(w.rx, buf...)
	return n
}

// Available implements Wire.
func (w *TxWire) Available() int {
	return len(w.rx) - w.rxPos
}

// Next implements Wire.
func (w *TxWire) Next() byte {
	if w.rxPos >= len(w.rx) {
		return 0
	}
	b := w.rx[w.rxPos]
	w.rxPos++
	return b
}

func (w *TxWire) flushHeld() {
	w.held = false
	if err := w.bus.Tx(w.heldAddr, w.heldW, nil); err != nil {
		w.err = err
	}
}

var _ Wire = (*TxWire)(nil)
