package mpu6050

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/imu6050/internal/wire"
)

// fakeWire records every bus call and plays back scripted results.
type fakeWire struct {
	calls []string

	addrAccepted int // count reported for the register address byte
	payloadLimit int // max payload bytes accepted, -1 for all
	status       int // returned by EndTransmission
	data         []byte

	rx     []byte
	writes int
}

func newFakeWire() *fakeWire {
	return &fakeWire{addrAccepted: 1, payloadLimit: -1}
}

func (f *fakeWire) BeginTransmission(addr uint16) {
	f.writes = 0
	f.calls = append(f.calls, fmt.Sprintf("begin(0x%02X)", addr))
}

func (f *fakeWire) Write(p []byte) int {
	f.calls = append(f.calls, fmt.Sprintf("write(% X)", p))
	f.writes++
	if f.writes == 1 {
		return f.addrAccepted
	}
	if f.payloadLimit >= 0 && len(p) > f.payloadLimit {
		return f.payloadLimit
	}
	return len(p)
}

func (f *fakeWire) EndTransmission(release bool) int {
	f.calls = append(f.calls, fmt.Sprintf("end(release=%t)", release))
	return f.status
}

func (f *fakeWire) RequestFrom(addr uint16, n int, release bool) int {
	f.calls = append(f.calls, fmt.Sprintf("request(0x%02X, %d, release=%t)", addr, n, release))
	f.rx = append([]byte(nil), f.data[:min(n, len(f.data))]...)
	return len(f.rx)
}

func (f *fakeWire) Available() int { return len(f.rx) }

func (f *fakeWire) Next() byte {
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b
}

var _ wire.Wire = (*fakeWire)(nil)

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func TestDecodeRoundTrip(t *testing.T) {
	for i := -32768; i <= 32767; i++ {
		v := int16(i)
		var raw Raw
		for f := 0; f < 7; f++ {
			raw[2*f] = byte(uint16(v) >> 8)
			raw[2*f+1] = byte(uint16(v))
		}
		s := Decode(raw)
		want := Sample{v, v, v, v, v, v, v}
		if s != want {
			t.Fatalf("Decode(%d) = %+v, want %+v", v, s, want)
		}
	}
}

func TestDecodeLayout(t *testing.T) {
	var raw Raw
	copy(raw[:], seq(SampleSize))

	got := Decode(raw)
	want := Sample{
		AccelX: 0x0102,
		AccelY: 0x0304,
		AccelZ: 0x0506,
		Temp:   0x0708,
		GyroX:  0x090A,
		GyroY:  0x0B0C,
		GyroZ:  0x0D0E,
	}
	if got != want {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

func TestDecodeNegative(t *testing.T) {
	raw := Raw{0xFF, 0xFE, 0x80, 0x00, 0x7F, 0xFF, 0xF0, 0xD8}
	got := Decode(raw)
	if got.AccelX != -2 || got.AccelY != -32768 || got.AccelZ != 32767 || got.Temp != -3880 {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestReadSample(t *testing.T) {
	f := newFakeWire()
	f.data = seq(SampleSize)
	d := New(f)

	s, err := d.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample() error: %v", err)
	}
	if s.AccelX != 0x0102 || s.GyroZ != 0x0D0E {
		t.Errorf("ReadSample() = %+v", s)
	}

	want := []string{
		"begin(0x68)",
		"write(3B)",
		"end(release=false)",
		"request(0x68, 14, release=true)",
	}
	if !reflect.DeepEqual(f.calls, want) {
		t.Errorf("bus calls = %q, want %q", f.calls, want)
	}
}

func TestReadSampleShortRead(t *testing.T) {
	f := newFakeWire()
	f.data = seq(10)
	d := New(f)

	s, err := d.ReadSample()
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("ReadSample() error = %v, want ErrShortRead", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %T is not *Error", err)
	}
	if e.Kind != ShortReadError || e.Want != SampleSize || e.Got != 10 || e.Code() != -11 {
		t.Errorf("error = %+v", e)
	}

	// The partial block is still decoded.
	want := Sample{AccelX: 0x0102, AccelY: 0x0304, AccelZ: 0x0506, Temp: 0x0708, GyroX: 0x090A}
	if s != want {
		t.Errorf("partial sample = %+v, want %+v", s, want)
	}
}

func TestReadAddressWriteError(t *testing.T) {
	for _, accepted := range []int{0, 2} {
		t.Run(fmt.Sprintf("accepted=%d", accepted), func(t *testing.T) {
			f := newFakeWire()
			f.addrAccepted = accepted
			f.data = seq(SampleSize)
			d := New(f)

			buf := make([]byte, SampleSize)
			err := d.Read(RegAccelXOutH, buf)
			if !errors.Is(err, ErrAddressWrite) {
				t.Fatalf("Read() error = %v, want ErrAddressWrite", err)
			}
			if code := err.(*Error).Code(); code != -10 {
				t.Errorf("Code() = %d, want -10", code)
			}
			want := []string{"begin(0x68)", "write(3B)"}
			if !reflect.DeepEqual(f.calls, want) {
				t.Errorf("bus calls = %q, want %q", f.calls, want)
			}
			if buf[0] != 0 {
				t.Errorf("buffer touched: %v", buf)
			}
		})
	}
}

func TestReadBusError(t *testing.T) {
	f := newFakeWire()
	f.status = wire.StatusAddrNACK
	d := New(f)

	err := d.Read(RegWhoAmI, make([]byte, 1))
	var e *Error
	if !errors.As(err, &e) || e.Kind != BusError {
		t.Fatalf("Read() error = %v, want BusError", err)
	}
	if e.Status != wire.StatusAddrNACK || e.Code() != wire.StatusAddrNACK {
		t.Errorf("status = %d, code = %d, want %d", e.Status, e.Code(), wire.StatusAddrNACK)
	}
	if !errors.Is(err, ErrBus) || errors.Is(err, ErrShortRead) {
		t.Errorf("errors.Is mismatch for %v", err)
	}
	if n := len(f.calls); n != 3 {
		t.Errorf("got %d bus calls, want 3 (no data phase): %q", n, f.calls)
	}
}

func TestWrite(t *testing.T) {
	f := newFakeWire()
	d := New(f)

	if err := d.Write(0x19, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	want := []string{"begin(0x68)", "write(19)", "write(01 02 03)", "end(release=true)"}
	if !reflect.DeepEqual(f.calls, want) {
		t.Errorf("bus calls = %q, want %q", f.calls, want)
	}
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fakeWire)
		kind      ErrorKind
		sentinel  error
		code      int
		wantCalls int
	}{
		{
			name:      "address",
			setup:     func(f *fakeWire) { f.addrAccepted = 0 },
			kind:      AddressWriteError,
			sentinel:  ErrAddressWrite,
			code:      -20,
			wantCalls: 2,
		},
		{
			name:      "payload",
			setup:     func(f *fakeWire) { f.payloadLimit = 2 },
			kind:      PayloadWriteError,
			sentinel:  ErrPayloadWrite,
			code:      -21,
			wantCalls: 3,
		},
		{
			name:      "bus",
			setup:     func(f *fakeWire) { f.status = wire.StatusDataNACK },
			kind:      BusError,
			sentinel:  ErrBus,
			code:      wire.StatusDataNACK,
			wantCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeWire()
			tt.setup(f)
			d := New(f)

			err := d.Write(0x19, []byte{1, 2, 3})
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Write() error = %v, want *Error", err)
			}
			if e.Kind != tt.kind || !errors.Is(err, tt.sentinel) || e.Code() != tt.code {
				t.Errorf("error = %+v (code %d), want kind %s code %d", e, e.Code(), tt.kind, tt.code)
			}
			if len(f.calls) != tt.wantCalls {
				t.Errorf("got %d bus calls, want %d: %q", len(f.calls), tt.wantCalls, f.calls)
			}
		})
	}
}

func TestWritePayloadMismatchCounts(t *testing.T) {
	f := newFakeWire()
	f.payloadLimit = 2
	err := New(f).Write(0x19, []byte{1, 2, 3})

	var e *Error
	if !errors.As(err, &e) || e.Want != 3 || e.Got != 2 {
		t.Fatalf("Write() error = %v, want 2 of 3 bytes", err)
	}
}

func TestWriteRegMatchesWrite(t *testing.T) {
	a, b := newFakeWire(), newFakeWire()

	if err := New(a).WriteReg(0x6B, 0); err != nil {
		t.Fatal(err)
	}
	if err := New(b).Write(0x6B, []byte{0}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.calls, b.calls) {
		t.Errorf("WriteReg calls %q differ from Write calls %q", a.calls, b.calls)
	}
}

func TestInitIsRepeatable(t *testing.T) {
	f := newFakeWire()
	d := New(f)

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	first := append([]string(nil), f.calls...)
	f.calls = nil
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	want := []string{"begin(0x68)", "write(6B)", "write(00)", "end(release=true)"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("first Init calls = %q, want %q", first, want)
	}
	if !reflect.DeepEqual(f.calls, first) {
		t.Errorf("second Init calls = %q, want %q", f.calls, first)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Op: opRead, Kind: AddressWriteError, Reg: 0x3B}, "mpu6050: read 0x3B: AddressWriteError"},
		{&Error{Op: opWrite, Kind: BusError, Reg: 0x6B, Status: 4}, "mpu6050: write 0x6B: bus status 4"},
		{&Error{Op: opRead, Kind: ShortReadError, Reg: 0x3B, Want: 14, Got: 10}, "mpu6050: read 0x3B: ShortReadError (10 of 14 bytes)"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestOverTxWire(t *testing.T) {
	block := seq(SampleSize)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: Address, W: []byte{RegPwrMgmt1, 0x00}},
			{Addr: Address, W: []byte{RegWhoAmI}, R: []byte{0x68}},
			{Addr: Address, W: []byte{RegAccelXOutH}, R: block},
		},
		DontPanic: true,
	}
	d := New(wire.New(bus))

	if err := d.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	id, err := d.WhoAmI()
	if err != nil || id != 0x68 {
		t.Fatalf("WhoAmI() = 0x%02X, %v", id, err)
	}
	s, err := d.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample() error: %v", err)
	}
	if s.Temp != 0x0708 {
		t.Errorf("Temp = 0x%04X, want 0x0708", s.Temp)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestOverTxWireOversizedRead(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: Address, W: []byte{0x0D}, R: make([]byte, wire.BufferSize)}},
		DontPanic: true,
	}
	d := New(wire.New(bus))

	err := d.Read(0x0D, make([]byte, 40))
	var e *Error
	if !errors.As(err, &e) || e.Kind != ShortReadError || e.Got != wire.BufferSize {
		t.Fatalf("Read(40 bytes) error = %v, want ShortReadError with %d bytes", err, wire.BufferSize)
	}
}
