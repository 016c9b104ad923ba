package dev

import "machine"

// TriggerPair drives the two marker outputs that bracket a measured
// region. Coarse is the human-visible marker (usually the board LED),
// Fine is the precise trigger the capture equipment aligns on. Ordering
// is part of the contract: coarse rises first and falls last, so the
// fine edges always sit inside the coarse window.
type TriggerPair struct {
	Coarse machine.Pin
	Fine   machine.Pin
}

func (t TriggerPair) Configure() error {
	if t.Coarse == t.Fine {
		return ErrSharedPin
	}
	t.Coarse.Configure(machine.PinConfig{Mode: machine.PinOutput})
	t.Fine.Configure(machine.PinConfig{Mode: machine.PinOutput})
	t.Coarse.Low()
	t.Fine.Low()
	return nil
}

// Raise asserts coarse, then fine. The fine rising edge is the last
// operation before the measured region.
//
//go:inline
func (t TriggerPair) Raise() {
	t.Coarse.High()
	t.Fine.High()
}

// Drop deasserts fine, then coarse. The fine falling edge is the first
// operation after the measured region.
//
//go:inline
func (t TriggerPair) Drop() {
	t.Fine.Low()
	t.Coarse.Low()
}
