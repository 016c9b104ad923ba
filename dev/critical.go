package dev

import "runtime/interrupt"

// Critical runs fn with all maskable interrupts disabled. The previous
// interrupt mask is captured as an opaque snapshot and restored on every
// path out of fn, including a panic. Nothing inside fn may block, sleep
// or allocate.
func Critical(fn func()) {
	state := interrupt.Disable()
	defer interrupt.Restore(state)
	fn()
}
