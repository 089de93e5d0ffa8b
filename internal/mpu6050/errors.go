package mpu6050

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed bus transaction.
type ErrorKind int

const (
	// AddressWriteError: the register address byte was not accepted.
	AddressWriteError ErrorKind = iota + 1
	// BusError: the transport reported a non-zero end-of-transmission status.
	BusError
	// ShortReadError: fewer bytes arrived than were requested.
	ShortReadError
	// PayloadWriteError: fewer payload bytes were accepted than requested.
	PayloadWriteError
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrAddressWrite = errors.New("mpu6050: register address not accepted")
	ErrBus          = errors.New("mpu6050: bus error")
	ErrShortRead    = errors.New("mpu6050: short read")
	ErrPayloadWrite = errors.New("mpu6050: payload not accepted")
)

func (k ErrorKind) String() string {
	switch k {
	case AddressWriteError:
		return "AddressWriteError"
	case BusError:
		return "BusError"
	case ShortReadError:
		return "ShortReadError"
	case PayloadWriteError:
		return "PayloadWriteError"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) sentinel() error {
	switch k {
	case AddressWriteError:
		return ErrAddressWrite
	case BusError:
		return ErrBus
	case ShortReadError:
		return ErrShortRead
	case PayloadWriteError:
		return ErrPayloadWrite
	}
	return nil
}

// Error describes the first failure of a register read or write.
type Error struct {
	Op   string // "read" or "write"
	Kind ErrorKind
	Reg  byte // start register of the transaction

	// Status is the transport status passed through verbatim for BusError.
	Status int

	// Want and Got are byte counts for ShortReadError and PayloadWriteError.
	Want, Got int
}

func (e *Error) Error() string {
	switch e.Kind {
	case BusError:
		return fmt.Sprintf("mpu6050: %s 0x%02X: bus status %d", e.Op, e.Reg, e.Status)
	case ShortReadError, PayloadWriteError:
		return fmt.Sprintf("mpu6050: %s 0x%02X: %s (%d of %d bytes)", e.Op, e.Reg, e.Kind, e.Got, e.Want)
	}
	return fmt.Sprintf("mpu6050: %s 0x%02X: %s", e.Op, e.Reg, e.Kind)
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Code returns the numeric status used by the Arduino firmware for this
// failure: -10/-11 for reads, -20/-21 for writes, and the transport status
// itself for BusError.
func (e *Error) Code() int {
	switch e.Kind {
	case BusError:
		return e.Status
	case AddressWriteError:
		if e.Op == opWrite {
			return -20
		}
		return -10
	case ShortReadError:
		return -11
	case PayloadWriteError:
		return -21
	}
	return -1
}
