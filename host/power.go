package host

import (
	"time"

	"github.com/juju/errors"
)

// ControlPort is the modem-control surface of a serial adapter whose
// DTR line switches the target's supply and whose RTS line pulls its
// reset.
type ControlPort interface {
	SetDTR(bool) error
	SetRTS(bool) error
}

// PowerCycler power cycles and resets the target under test between
// glitch attempts.
type PowerCycler struct {
	port ControlPort

	// Hold is how long the supply stays off during a cycle.
	Hold time.Duration
	// Settle is how long the target gets to boot afterwards.
	Settle time.Duration
}

func NewPowerCycler(port ControlPort) *PowerCycler {
	return &PowerCycler{
		port:   port,
		Hold:   time.Second,
		Settle: 200 * time.Millisecond,
	}
}

// Cycle switches the target off, waits, and switches it back on.
func (pc *PowerCycler) Cycle() error {
	logger.Debug("power cycling target")
	if err := pc.port.SetDTR(true); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(pc.Hold)
	if err := pc.port.SetDTR(false); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(pc.Settle)
	return nil
}

// Reset pulses the target's reset line without dropping power.
func (pc *PowerCycler) Reset(hold time.Duration) error {
	if err := pc.port.SetRTS(true); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(hold)
	if err := pc.port.SetRTS(false); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(pc.Settle)
	return nil
}
