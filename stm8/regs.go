// Package stm8 emits and delivers the STM8L bootloader-path probe.
//
// No Go toolchain targets the STM8 core, so the probe program is not
// compiled: it is assembled instruction by instruction. That is a
// feature, not a workaround. The probe's value lies in its exact branch
// structure, and emitting opcodes directly guarantees no optimizer can
// coalesce the reset-vector compares or hoist the option-byte read.
package stm8

// STM8L GPIO port B register file. Register names follow the datasheet.
const (
	PB_ODR uint16 = 0x5005
	PB_IDR uint16 = 0x5006
	PB_DDR uint16 = 0x5007
	PB_CR1 uint16 = 0x5008
	PB_CR2 uint16 = 0x5009
)

// Peripheral clock gating.
const CLK_PCKENR1 uint16 = 0x50C3

const (
	// FlashBase is the base of program flash; the byte at this address is
	// the first byte of the reset vector and the first probe input.
	FlashBase uint16 = 0x8000

	// OptionBL is the alias address of the bootloader-enable option
	// byte, the second probe input.
	OptionBL uint16 = 0x480B
)
