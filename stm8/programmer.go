package stm8

import (
	"io"
	"time"

	"github.com/juju/errors"
)

// Transport is the serial link to the target's UART bootloader. The
// modem-control lines are wired to the target's reset circuit.
type Transport interface {
	io.ReadWriter
	SetDTR(bool) error
	SetRTS(bool) error
}

// Bootloader wire protocol. Every frame sent to the target carries a
// CRC-8 trailer; the target answers each frame with a single ACK or NACK
// byte.
const (
	cmdInit        = 0x7F
	cmdWriteMemory = 0x10
	cmdReadMemory  = 0x11
	cmdOptionWrite = 0x12
	cmdOptionRead  = 0x13

	ackByte  = 0x79
	nackByte = 0x1F
)

// BlockSize is the flash write granularity; short tail blocks are padded
// with 0xFF (the erased state).
const BlockSize = 64

var (
	ErrNack       = errors.New("stm8: target answered NACK")
	ErrNoResponse = errors.New("stm8: no response from target")
	ErrBadCRC     = errors.New("stm8: response checksum mismatch")
	ErrVerify     = errors.New("stm8: flash verification failed")
)

// Programmer drives the target's serial bootloader.
type Programmer struct {
	t Transport

	// SettleDelay is how long the target is given to come out of reset.
	SettleDelay time.Duration
}

func NewProgrammer(t Transport) *Programmer {
	return &Programmer{t: t, SettleDelay: 100 * time.Millisecond}
}

// crc8Update folds one byte into a CRC-8 with polynomial 0x07.
func crc8Update(crc, data byte) byte {
	crc ^= data
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = crc<<1 ^ 0x07
		} else {
			crc <<= 1
		}
	}
	return crc
}

func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc = crc8Update(crc, b)
	}
	return crc
}

// sendFrame writes payload plus CRC trailer and waits for the ACK.
func (p *Programmer) sendFrame(payload ...byte) error {
	frame := append(append([]byte(nil), payload...), crc8(payload))
	if _, err := p.t.Write(frame); err != nil {
		return errors.Trace(err)
	}
	var ack [1]byte
	n, err := p.t.Read(ack[:])
	if err != nil && err != io.EOF {
		return errors.Trace(err)
	}
	if n != 1 {
		return ErrNoResponse
	}
	switch ack[0] {
	case ackByte:
		return nil
	case nackByte:
		return ErrNack
	default:
		return errors.Errorf("stm8: unexpected response 0x%02x", ack[0])
	}
}

// Reset pulses the target's reset line via DTR and leaves it released.
// Used to start a freshly flashed probe without re-entering the
// bootloader.
func (p *Programmer) Reset() error {
	if err := p.t.SetDTR(true); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(p.SettleDelay)
	if err := p.t.SetDTR(false); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(p.SettleDelay)
	return nil
}

// EnterBootloader resets the target and arms its serial bootloader.
func (p *Programmer) EnterBootloader() error {
	if err := p.t.SetRTS(true); err != nil {
		return errors.Trace(err)
	}
	if err := p.Reset(); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(p.sendFrame(cmdInit), "bootloader init")
}

// WriteMemory programs data into flash starting at the bootloader's
// fixed base, in BlockSize chunks padded with 0xFF.
func (p *Programmer) WriteMemory(data []byte) error {
	if len(data) == 0 {
		return errors.New("stm8: nothing to write")
	}
	chunks := (len(data) + BlockSize - 1) / BlockSize
	if chunks > 0xFF {
		return errors.Errorf("stm8: image too large: %d bytes", len(data))
	}
	if err := p.sendFrame(cmdWriteMemory); err != nil {
		return errors.Annotate(err, "write command")
	}
	if err := p.sendFrame(byte(chunks)); err != nil {
		return errors.Annotate(err, "chunk count")
	}
	for i := 0; i < chunks; i++ {
		block := make([]byte, BlockSize)
		for j := range block {
			block[j] = 0xFF
		}
		copy(block, data[i*BlockSize:])
		if err := p.sendFrame(block...); err != nil {
			return errors.Annotatef(err, "block %d", i)
		}
	}
	return nil
}

// ReadMemory reads n bytes (1..256) starting at addr.
func (p *Programmer) ReadMemory(addr uint16, n int) ([]byte, error) {
	if n < 1 || n > 256 {
		return nil, errors.Errorf("stm8: read length %d out of range", n)
	}
	if err := p.sendFrame(cmdReadMemory); err != nil {
		return nil, errors.Annotate(err, "read command")
	}
	if err := p.sendFrame(byte(addr>>8), byte(addr)); err != nil {
		return nil, errors.Annotate(err, "read address")
	}
	if err := p.sendFrame(byte(n - 1)); err != nil {
		return nil, errors.Annotate(err, "read length")
	}
	return p.readChecked(n)
}

// WriteOption programs the read-out-protection option byte.
func (p *Programmer) WriteOption(v byte) error {
	if err := p.sendFrame(cmdOptionWrite); err != nil {
		return errors.Annotate(err, "option write command")
	}
	return errors.Annotate(p.sendFrame(v), "option value")
}

// ReadOption reads back the read-out-protection option byte.
func (p *Programmer) ReadOption() (byte, error) {
	if err := p.sendFrame(cmdOptionRead); err != nil {
		return 0, errors.Annotate(err, "option read command")
	}
	if err := p.sendFrame(0x00); err != nil {
		return 0, errors.Annotate(err, "option length")
	}
	buf, err := p.readChecked(1)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return buf[0], nil
}

// readChecked reads n data bytes plus the CRC trailer.
func (p *Programmer) readChecked(n int) ([]byte, error) {
	buf := make([]byte, n+1)
	if _, err := io.ReadFull(p.t, buf); err != nil {
		return nil, errors.Trace(err)
	}
	data := buf[:n]
	if crc8(data) != buf[n] {
		return data, ErrBadCRC
	}
	return data, nil
}

// Flash enters the bootloader, programs the image and verifies the
// readback byte for byte.
func (p *Programmer) Flash(img Image) error {
	if err := p.EnterBootloader(); err != nil {
		return errors.Trace(err)
	}
	if err := p.WriteMemory(img.Data); err != nil {
		return errors.Trace(err)
	}
	for off := 0; off < len(img.Data); off += 256 {
		n := len(img.Data) - off
		if n > 256 {
			n = 256
		}
		got, err := p.ReadMemory(img.Addr+uint16(off), n)
		if err != nil {
			return errors.Annotatef(err, "verify at 0x%04x", img.Addr+uint16(off))
		}
		for i := range got {
			if got[i] != img.Data[off+i] {
				return errors.Annotatef(ErrVerify, "at 0x%04x: want 0x%02x, got 0x%02x",
					img.Addr+uint16(off+i), img.Data[off+i], got[i])
			}
		}
	}
	return nil
}
