package wire

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

const devAddr = 0x68

// txFunc lets a plain function stand in for a drivers.I2C bus.
type txFunc func(addr uint16, w, r []byte) error

func (f txFunc) Tx(addr uint16, w, r []byte) error { return f(addr, w, r) }

func TestHeldWriteIsCombinedWithRead(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: devAddr, W: []byte{0x3B}, R: []byte{1, 2, 3, 4}},
		},
		DontPanic: true,
	}
	w := New(bus)

	w.BeginTransmission(devAddr)
	if n := w.Write([]byte{0x3B}); n != 1 {
		t.Fatalf("Write() = %d, want 1", n)
	}
	if s := w.EndTransmission(false); s != StatusOK {
		t.Fatalf("EndTransmission(false) = %d, want %d", s, StatusOK)
	}
	if n := w.RequestFrom(devAddr, 4, true); n != 4 {
		t.Fatalf("RequestFrom() = %d, want 4", n)
	}

	var got []byte
	for w.Available() > 0 {
		got = append(got, w.Next())
	}
	if string(got) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("drained %v, want [1 2 3 4]", got)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestReleasedWriteIsSentImmediately(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: devAddr, W: []byte{0x6B, 0x00}}},
		DontPanic: true,
	}
	w := New(bus)

	w.BeginTransmission(devAddr)
	w.Write([]byte{0x6B})
	w.Write([]byte{0x00})
	if s := w.EndTransmission(true); s != StatusOK {
		t.Fatalf("EndTransmission(true) = %d, want %d", s, StatusOK)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestWriteOverflow(t *testing.T) {
	calls := 0
	w := New(txFunc(func(addr uint16, wb, r []byte) error {
		calls++
		return nil
	}))

	w.BeginTransmission(devAddr)
	if n := w.Write(make([]byte, 40)); n != BufferSize {
		t.Errorf("Write(40 bytes) = %d, want %d", n, BufferSize)
	}
	if n := w.Write([]byte{1}); n != 0 {
		t.Errorf("Write on full buffer = %d, want 0", n)
	}
	if s := w.EndTransmission(true); s != StatusTooLong {
		t.Errorf("EndTransmission = %d, want %d", s, StatusTooLong)
	}
	if calls != 0 {
		t.Errorf("bus saw %d transactions, want 0", calls)
	}
}

func TestRequestFromClampsToBuffer(t *testing.T) {
	var asked int
	w := New(txFunc(func(addr uint16, wb, r []byte) error {
		asked = len(r)
		return nil
	}))

	if n := w.RequestFrom(devAddr, 40, true); n != BufferSize {
		t.Errorf("RequestFrom(40) = %d, want %d", n, BufferSize)
	}
	if asked != BufferSize {
		t.Errorf("bus read %d bytes, want %d", asked, BufferSize)
	}
}

func TestTransportErrors(t *testing.T) {
	nack := errors.New("remote I/O error")
	w := New(txFunc(func(addr uint16, wb, r []byte) error {
		return nack
	}))

	w.BeginTransmission(devAddr)
	w.Write([]byte{0x6B, 0})
	if s := w.EndTransmission(true); s != StatusOther {
		t.Errorf("EndTransmission = %d, want %d", s, StatusOther)
	}
	if !errors.Is(w.LastError(), nack) {
		t.Errorf("LastError() = %v, want %v", w.LastError(), nack)
	}

	if n := w.RequestFrom(devAddr, 14, true); n != 0 {
		t.Errorf("RequestFrom on failing bus = %d, want 0", n)
	}
	if w.Available() != 0 {
		t.Errorf("Available() = %d, want 0", w.Available())
	}
	if b := w.Next(); b != 0 {
		t.Errorf("Next() on empty = %d, want 0", b)
	}
}

func TestEndWithoutBegin(t *testing.T) {
	w := New(txFunc(func(addr uint16, wb, r []byte) error { return nil }))
	if n := w.Write([]byte{1}); n != 0 {
		t.Errorf("Write outside transmission = %d, want 0", n)
	}
	if s := w.EndTransmission(true); s != StatusOther {
		t.Errorf("EndTransmission outside transmission = %d, want %d", s, StatusOther)
	}
}

func TestUnconsumedHoldIsFlushed(t *testing.T) {
	bus := &i2ctest.Record{}
	w := New(bus)

	w.BeginTransmission(devAddr)
	w.Write([]byte{0x75})
	w.EndTransmission(false)

	w.BeginTransmission(devAddr)
	w.Write([]byte{0x6B, 0})
	w.EndTransmission(true)

	want := []i2ctest.IO{
		{Addr: devAddr, W: []byte{0x75}},
		{Addr: devAddr, W: []byte{0x6B, 0}},
	}
	if len(bus.Ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d: %+v", len(bus.Ops), len(want), bus.Ops)
	}
	for i := range want {
		if bus.Ops[i].Addr != want[i].Addr || string(bus.Ops[i].W) != string(want[i].W) {
			t.Errorf("op %d = %+v, want %+v", i, bus.Ops[i], want[i])
		}
	}
}
