package stm8

import "github.com/juju/errors"

// Probe pins, all on port B. Levels are static once set; the analyzer
// reads them long after the decision is over.
const (
	TrigBit     = 1 // PB1: program entry marker, high for the program's lifetime
	SuccessBit  = 4 // PB4: the path reached the read-out-protection check
	ExpectedBit = 5 // PB5: the path fell through to "enter application"
)

// Decision-tree constants of the factory bootloader's first compares.
const (
	bootMarkerInt = 0x82 // INT opcode, the usual first byte of a programmed reset vector
	bootMarkerAlt = 0xAC // JPF opcode, the alternative the bootloader accepts
	bootEnabled   = 0x55 // option-byte value that keeps the bootloader armed
)

// codeOrigin is the first byte after the 32-entry interrupt vector table.
const codeOrigin uint16 = 0x8080

// Config selects build-time variants of the boot-path probe.
type Config struct {
	// AlwaysSuccess appends an unconditional SUCCESS assertion after the
	// decision tree, to validate the capture chain independently of the
	// branch taken.
	AlwaysSuccess bool
}

// Image is a contiguous chunk of target flash.
type Image struct {
	Addr uint16
	Data []byte
}

// BootPath builds the bootloader-path probe image, vector table included.
//
// The program reconstructs the earliest decision points of the factory
// bootloader and parks the outcome on port B: configure PB1/PB4/PB5 as
// push-pull fast outputs, raise TRIG, disable interrupts, then walk the
// decision tree in straight-line code. The tree reads the byte at 0x8000
// and the option byte at 0x480B and asserts exactly one of SUCCESS or
// EXPECTED. There are no calls, no loops and no RAM writes; the only
// stores are the pin assertions.
func BootPath(cfg Config) (Image, error) {
	p := NewProgram(codeOrigin)

	// Clock gating and pin configuration come first, so that the later
	// branch signalling is nothing but a data-register write.
	p.Mov(CLK_PCKENR1, 0xFF)

	const pins = 1<<TrigBit | 1<<SuccessBit | 1<<ExpectedBit
	p.LdA(PB_DDR)
	p.OrA(pins)
	p.StA(PB_DDR) // outputs
	p.LdA(PB_CR1)
	p.OrA(pins)
	p.StA(PB_CR1) // push-pull
	p.LdA(PB_CR2)
	p.OrA(pins)
	p.StA(PB_CR2) // fast slew

	// TRIG marks program entry, before any probed address is touched.
	p.Bset(PB_ODR, TrigBit)

	p.Sim()

	// The decision tree, branch for branch. The two reset-vector
	// compares stay separate compares; folding them into a lookup would
	// change the fault-injection surface being measured.
	p.LdA(FlashBase)
	p.CpA(bootMarkerInt)
	p.Jreq("bootl_check")
	p.CpA(bootMarkerAlt)
	p.Jreq("bootl_check")
	p.Jra("rdp_check")

	p.Label("bootl_check")
	p.LdA(OptionBL)
	p.CpA(bootEnabled)
	p.Jreq("rdp_check")
	p.Jra("enter_app")

	p.Label("rdp_check")
	p.Bset(PB_ODR, SuccessBit)
	p.Jra("done")

	p.Label("enter_app")
	p.Bset(PB_ODR, ExpectedBit)

	p.Label("done")
	p.Nop()

	if cfg.AlwaysSuccess {
		p.Bset(PB_ODR, SuccessBit)
	}

	p.Label("idle")
	p.Jra("idle")

	code, err := p.Assemble()
	if err != nil {
		return Image{}, errors.Trace(err)
	}

	data := make([]byte, 0, int(codeOrigin-FlashBase)+len(code))
	data = append(data, resetVector(codeOrigin)...)
	for len(data) < int(codeOrigin-FlashBase) {
		data = append(data, 0xFF) // unused vector slots stay erased
	}
	data = append(data, code...)
	return Image{Addr: FlashBase, Data: data}, nil
}

// resetVector encodes the 4-byte STM8 vector entry: an INT instruction
// with a 24-bit target address.
func resetVector(target uint16) []byte {
	return []byte{0x82, 0x00, byte(target >> 8), byte(target)}
}
