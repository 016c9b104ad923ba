package main

// The workload is assembled by binary doubling of a single add so that
// the emitted code is exactly 256 straight-line, single-cycle adds on one
// register: no branch, no load, no store between increments. A Go loop is
// not a substitute here; loop overhead and compiler reordering would
// break the fixed cycle count the host relies on.
const (
	add1   = "adds {}, #1\n"
	add2   = add1 + add1
	add4   = add2 + add2
	add8   = add4 + add4
	add16  = add8 + add8
	add32  = add16 + add16
	add64  = add32 + add32
	add128 = add64 + add64
	add256 = add128 + add128
)

// countedWorkload zeroes the counter register and increments it
// proto.WorkloadSize times. Executed via arm.AsmFull, which acts as a
// full compiler barrier on both sides.
const countedWorkload = "movs {}, #0\n" + add256
