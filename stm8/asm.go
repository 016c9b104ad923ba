package stm8

import "github.com/juju/errors"

const badBitIndex = "stm8: bit index out of range"

// Program assembles an absolute-origin STM8 code stream. Only the
// instructions the boot-path probe needs are implemented; branches take
// labels and are fixed up on Assemble.
type Program struct {
	org    uint16
	code   []byte
	labels map[string]uint16
	refs   []branchRef
}

// branchRef records an unresolved 8-bit relative branch. next is the
// address of the instruction following the branch, which is what the
// displacement is relative to.
type branchRef struct {
	off   int
	next  uint16
	label string
}

func NewProgram(org uint16) *Program {
	return &Program{org: org, labels: map[string]uint16{}}
}

// Origin returns the address of the first emitted byte.
func (p *Program) Origin() uint16 { return p.org }

// Len returns the current length of the code stream in bytes.
func (p *Program) Len() int { return len(p.code) }

func (p *Program) pc() uint16 { return p.org + uint16(len(p.code)) }

func (p *Program) emit(b ...byte) { p.code = append(p.code, b...) }

// Label binds name to the current location counter.
func (p *Program) Label(name string) { p.labels[name] = p.pc() }

// Sim disables interrupts.
func (p *Program) Sim() { p.emit(0x9B) }

func (p *Program) Nop() { p.emit(0x9D) }

// LdA loads A from an absolute 16-bit address.
func (p *Program) LdA(addr uint16) { p.emit(0xC6, byte(addr>>8), byte(addr)) }

// StA stores A to an absolute 16-bit address.
func (p *Program) StA(addr uint16) { p.emit(0xC7, byte(addr>>8), byte(addr)) }

// CpA compares A against an immediate.
func (p *Program) CpA(v byte) { p.emit(0xA1, v) }

// OrA ors an immediate into A.
func (p *Program) OrA(v byte) { p.emit(0xAA, v) }

// Mov stores an immediate to an absolute 16-bit address without going
// through A.
func (p *Program) Mov(addr uint16, v byte) { p.emit(0x35, v, byte(addr>>8), byte(addr)) }

// Bset sets one bit of the byte at an absolute 16-bit address. A single
// read-modify-write instruction, so it is the branch-signalling primitive.
func (p *Program) Bset(addr uint16, bit uint8) {
	if bit > 7 {
		panic(badBitIndex)
	}
	p.emit(0x72, 0x10+2*bit, byte(addr>>8), byte(addr))
}

// Jreq branches to label when the zero flag is set.
func (p *Program) Jreq(label string) { p.branch(0x27, label) }

// Jra branches to label unconditionally.
func (p *Program) Jra(label string) { p.branch(0x20, label) }

func (p *Program) branch(op byte, label string) {
	p.emit(op, 0x00)
	p.refs = append(p.refs, branchRef{off: len(p.code) - 1, next: p.pc(), label: label})
}

// Assemble resolves branch displacements and returns the code stream.
func (p *Program) Assemble() ([]byte, error) {
	for _, r := range p.refs {
		target, ok := p.labels[r.label]
		if !ok {
			return nil, errors.Errorf("undefined label %q", r.label)
		}
		d := int32(target) - int32(r.next)
		if d < -128 || d > 127 {
			return nil, errors.Errorf("branch to %q out of range: %d", r.label, d)
		}
		p.code[r.off] = byte(int8(d))
	}
	out := make([]byte, len(p.code))
	copy(out, p.code)
	return out, nil
}
