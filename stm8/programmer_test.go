package stm8

import (
	"bytes"
	"testing"

	"github.com/juju/errors"
)

func TestCRC8(t *testing.T) {
	cases := []struct {
		in   []byte
		want byte
	}{
		{[]byte{0x7F}, 0x89},
		{[]byte{0x10}, 0x83},
		{[]byte{0x11}, 0x84},
		{[]byte{0x13}, 0x8A},
		{[]byte{0x00}, 0xF3},
		{[]byte{0x55}, 0x5F},
		{[]byte{0x80, 0x00}, 0x61},
		{[]byte{0xDE, 0xAD, 0xBE, 0xEF}, 0x1B},
	}
	for _, c := range cases {
		if got := crc8(c.in); got != c.want {
			t.Errorf("crc8(% X) = 0x%02X, want 0x%02X", c.in, got, c.want)
		}
	}
}

// fakeTarget plays the target side of the bootloader protocol from a
// pre-scripted response stream and records everything the programmer
// sends and does to the control lines.
type fakeTarget struct {
	rx  bytes.Buffer // received from the programmer
	tx  bytes.Buffer // queued responses
	dtr []bool
	rts []bool
}

func (f *fakeTarget) Write(p []byte) (int, error) { return f.rx.Write(p) }
func (f *fakeTarget) Read(p []byte) (int, error)  { return f.tx.Read(p) }
func (f *fakeTarget) SetDTR(v bool) error         { f.dtr = append(f.dtr, v); return nil }
func (f *fakeTarget) SetRTS(v bool) error         { f.rts = append(f.rts, v); return nil }

func (f *fakeTarget) ack()            { f.tx.WriteByte(ackByte) }
func (f *fakeTarget) nack()           { f.tx.WriteByte(nackByte) }
func (f *fakeTarget) data(b ...byte)  { f.tx.Write(b); f.tx.WriteByte(crc8(b)) }
func (f *fakeTarget) sent() []byte    { return f.rx.Bytes() }

func newTestProgrammer() (*Programmer, *fakeTarget) {
	ft := &fakeTarget{}
	p := NewProgrammer(ft)
	p.SettleDelay = 0
	return p, ft
}

func TestEnterBootloader(t *testing.T) {
	p, ft := newTestProgrammer()
	ft.ack()
	if err := p.EnterBootloader(); err != nil {
		t.Fatal(err)
	}
	if want := []byte{cmdInit, 0x89}; !bytes.Equal(ft.sent(), want) {
		t.Errorf("sent % X, want % X", ft.sent(), want)
	}
	// Reset is pulsed: DTR raised then released, RTS held.
	if len(ft.dtr) != 2 || !ft.dtr[0] || ft.dtr[1] {
		t.Errorf("DTR sequence %v, want [true false]", ft.dtr)
	}
	if len(ft.rts) != 1 || !ft.rts[0] {
		t.Errorf("RTS sequence %v, want [true]", ft.rts)
	}
}

func TestEnterBootloaderNack(t *testing.T) {
	p, ft := newTestProgrammer()
	ft.nack()
	err := p.EnterBootloader()
	if errors.Cause(err) != ErrNack {
		t.Fatalf("err = %v, want %v", err, ErrNack)
	}
}

func TestNoResponse(t *testing.T) {
	p, _ := newTestProgrammer()
	err := p.sendFrame(cmdInit)
	if errors.Cause(err) != ErrNoResponse {
		t.Fatalf("err = %v, want %v", err, ErrNoResponse)
	}
}

func TestWriteMemory(t *testing.T) {
	p, ft := newTestProgrammer()
	data := make([]byte, BlockSize+1) // forces a padded second block
	for i := range data {
		data[i] = byte(i)
	}
	for i := 0; i < 2+2; i++ {
		ft.ack()
	}
	if err := p.WriteMemory(data); err != nil {
		t.Fatal(err)
	}

	var want bytes.Buffer
	want.Write([]byte{cmdWriteMemory, crc8([]byte{cmdWriteMemory})})
	want.Write([]byte{0x02, crc8([]byte{0x02})})
	block1 := data[:BlockSize]
	want.Write(block1)
	want.WriteByte(crc8(block1))
	block2 := make([]byte, BlockSize)
	for i := range block2 {
		block2[i] = 0xFF
	}
	block2[0] = data[BlockSize]
	want.Write(block2)
	want.WriteByte(crc8(block2))

	if !bytes.Equal(ft.sent(), want.Bytes()) {
		t.Errorf("sent %d bytes, want %d:\ngot  % X\nwant % X",
			len(ft.sent()), want.Len(), ft.sent(), want.Bytes())
	}
}

func TestWriteMemoryTooLarge(t *testing.T) {
	p, _ := newTestProgrammer()
	if err := p.WriteMemory(make([]byte, 256*BlockSize)); err == nil {
		t.Fatal("expected error for oversized image")
	}
}

func TestReadMemory(t *testing.T) {
	p, ft := newTestProgrammer()
	ft.ack() // read command
	ft.ack() // address
	ft.ack() // length
	ft.data(0x82, 0x00, 0x80, 0x80)

	got, err := p.ReadMemory(0x8000, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x82, 0x00, 0x80, 0x80}; !bytes.Equal(got, want) {
		t.Errorf("read % X, want % X", got, want)
	}

	var want bytes.Buffer
	want.Write([]byte{cmdReadMemory, crc8([]byte{cmdReadMemory})})
	want.Write([]byte{0x80, 0x00, 0x61}) // big-endian address + crc
	want.Write([]byte{0x03, crc8([]byte{0x03})})
	if !bytes.Equal(ft.sent(), want.Bytes()) {
		t.Errorf("sent % X, want % X", ft.sent(), want.Bytes())
	}
}

func TestReadMemoryBadCRC(t *testing.T) {
	p, ft := newTestProgrammer()
	ft.ack()
	ft.ack()
	ft.ack()
	ft.tx.Write([]byte{0x82, 0x00, 0x80, 0x80, 0x00}) // wrong trailer

	_, err := p.ReadMemory(0x8000, 4)
	if errors.Cause(err) != ErrBadCRC {
		t.Fatalf("err = %v, want %v", err, ErrBadCRC)
	}
}

func TestReadMemoryLengthRange(t *testing.T) {
	p, _ := newTestProgrammer()
	for _, n := range []int{0, -1, 257} {
		if _, err := p.ReadMemory(0x8000, n); err == nil {
			t.Errorf("n=%d: expected error", n)
		}
	}
}

func TestOptionRoundTrip(t *testing.T) {
	p, ft := newTestProgrammer()
	ft.ack() // write command
	ft.ack() // value
	if err := p.WriteOption(0x55); err != nil {
		t.Fatal(err)
	}

	ft.ack() // read command
	ft.ack() // length
	ft.data(0x55)
	got, err := p.ReadOption()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x55 {
		t.Errorf("option byte 0x%02X, want 0x55", got)
	}
}

func TestFlashVerifyMismatch(t *testing.T) {
	p, ft := newTestProgrammer()
	img := Image{Addr: 0x8000, Data: []byte{0x82, 0x00, 0x80, 0x80}}

	ft.ack() // bootloader init
	ft.ack() // write command
	ft.ack() // chunk count
	ft.ack() // block
	ft.ack() // read command
	ft.ack() // address
	ft.ack() // length
	ft.data(0x82, 0x00, 0x80, 0x00) // readback differs in the last byte

	err := p.Flash(img)
	if errors.Cause(err) != ErrVerify {
		t.Fatalf("err = %v, want %v", err, ErrVerify)
	}
}

func TestFlashOK(t *testing.T) {
	p, ft := newTestProgrammer()
	img := Image{Addr: 0x8000, Data: []byte{0x82, 0x00, 0x80, 0x80}}

	ft.ack()
	ft.ack()
	ft.ack()
	ft.ack()
	ft.ack()
	ft.ack()
	ft.ack()
	ft.data(img.Data...)

	if err := p.Flash(img); err != nil {
		t.Fatal(err)
	}
}
