package host

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/itohio/glitchprobe/proto"
)

func init() {
	l := logrus.New()
	l.Out = io.Discard
	SetLogger(l)
}

// fakeProbe mimics the firmware's serial behaviour: a boot preamble,
// then one scripted counter reply per received line.
type fakeProbe struct {
	out      bytes.Buffer // to the host
	partial  bytes.Buffer // unterminated command bytes
	counters []uint32
}

func newFakeProbe(counters ...uint32) *fakeProbe {
	p := &fakeProbe{counters: counters}
	fmt.Fprintf(&p.out, "%s\r\n%s\r\n", proto.Banner, proto.Prompt)
	return p
}

func (p *fakeProbe) Read(b []byte) (int, error) { return p.out.Read(b) }

func (p *fakeProbe) Write(b []byte) (int, error) {
	for _, c := range b {
		if c != '\n' {
			p.partial.WriteByte(c)
			continue
		}
		p.partial.Reset()
		if len(p.counters) == 0 {
			continue // probe hangs: nothing more to say
		}
		fmt.Fprintf(&p.out, "XXX%dYYY%dZZZ\r\n", p.counters[0], p.counters[0])
		p.counters = p.counters[1:]
	}
	return len(b), nil
}

func TestWaitBanner(t *testing.T) {
	fp := newFakeProbe()
	s := NewSession(fp)
	if err := s.WaitBanner(4); err != nil {
		t.Fatal(err)
	}
}

func TestWaitBannerSkipsNoise(t *testing.T) {
	fp := newFakeProbe()
	var noisy bytes.Buffer
	noisy.WriteString("bootrom v3\r\n\r\n")
	noisy.Write(fp.out.Bytes())
	fp.out = noisy

	s := NewSession(fp)
	if err := s.WaitBanner(8); err != nil {
		t.Fatal(err)
	}
}

func TestWaitBannerGivesUp(t *testing.T) {
	var junk bytes.Buffer
	for i := 0; i < 10; i++ {
		junk.WriteString("noise\r\n")
	}
	s := NewSession(&junk)
	if err := s.WaitBanner(5); errors.Cause(err) != ErrNoBanner {
		t.Fatalf("err = %v, want %v", err, ErrNoBanner)
	}
}

func TestMeasure(t *testing.T) {
	fp := newFakeProbe(256, 199, 256)
	s := NewSession(fp)
	if err := s.WaitBanner(4); err != nil {
		t.Fatal(err)
	}

	want := []State{StateExpected, StateSuccess, StateExpected}
	for i, ws := range want {
		res := s.Measure("go")
		if res.State != ws {
			t.Fatalf("run %d: state %v, want %v (line %q, err %v)", i, res.State, ws, res.Line, res.Err)
		}
	}
	if res := s.Measure("go"); res.State != StateError {
		t.Errorf("exhausted probe: state %v, want %v", res.State, StateError)
	}
}

func TestMeasureSkipsNoise(t *testing.T) {
	fp := newFakeProbe(256)
	s := NewSession(fp)
	if err := s.WaitBanner(4); err != nil {
		t.Fatal(err)
	}

	// A reset notice sneaks in ahead of the reply.
	fp.out.WriteString("reset: watchdog\r\n")
	if res := s.Measure("go"); res.State != StateExpected {
		t.Errorf("state %v, want %v (err %v)", res.State, StateExpected, res.Err)
	}
}

func TestMeasureNoiseLimit(t *testing.T) {
	fp := newFakeProbe()
	s := NewSession(fp)
	if err := s.WaitBanner(4); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2*measureNoiseLimit; i++ {
		fp.out.WriteString("noise\r\n")
	}
	if res := s.Measure("go"); res.State != StateError {
		t.Errorf("state %v, want %v", res.State, StateError)
	}
}

func TestMeasureRejectsMultiline(t *testing.T) {
	s := NewSession(newFakeProbe(256))
	if res := s.Measure("a\nb"); res.State != StateError {
		t.Errorf("state %v, want %v", res.State, StateError)
	}
}
