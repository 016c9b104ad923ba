package dev

import (
	"machine"
	"time"
)

// BlinkUntil toggles pin at rate Hz until done reports true, then leaves
// the pin low. done is polled once per half period.
func BlinkUntil(pin machine.Pin, rate int, done func() bool) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	half := time.Second / time.Duration(2*rate)
	for !done() {
		pin.High()
		time.Sleep(half)
		pin.Low()
		time.Sleep(half)
	}
	pin.Low()
	return nil
}
