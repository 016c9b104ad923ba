package host

import (
	"reflect"
	"testing"
)

type fakeControl struct {
	dtr []bool
	rts []bool
}

func (f *fakeControl) SetDTR(v bool) error { f.dtr = append(f.dtr, v); return nil }
func (f *fakeControl) SetRTS(v bool) error { f.rts = append(f.rts, v); return nil }

func TestPowerCycle(t *testing.T) {
	fc := &fakeControl{}
	pc := NewPowerCycler(fc)
	pc.Hold = 0
	pc.Settle = 0

	if err := pc.Cycle(); err != nil {
		t.Fatal(err)
	}
	if want := []bool{true, false}; !reflect.DeepEqual(fc.dtr, want) {
		t.Errorf("DTR %v, want %v", fc.dtr, want)
	}
	if len(fc.rts) != 0 {
		t.Errorf("RTS touched during power cycle: %v", fc.rts)
	}
}

func TestPowerReset(t *testing.T) {
	fc := &fakeControl{}
	pc := NewPowerCycler(fc)
	pc.Settle = 0

	if err := pc.Reset(0); err != nil {
		t.Fatal(err)
	}
	if want := []bool{true, false}; !reflect.DeepEqual(fc.rts, want) {
		t.Errorf("RTS %v, want %v", fc.rts, want)
	}
	if len(fc.dtr) != 0 {
		t.Errorf("DTR touched during reset: %v", fc.dtr)
	}
}
