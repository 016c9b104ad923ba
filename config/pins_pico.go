//go:build rp2040

package config

import "machine"

var (
	// Led doubles as the coarse measurement marker and as the
	// waiting-for-host blinker.
	Led = machine.LED

	// Trigger is the precise trigger the capture equipment keys off.
	Trigger = machine.GP0
)
