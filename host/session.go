// Package host drives the bench-PC side of the measurement rig: the
// serial session against the RP2040 probe, run classification and
// target power control.
package host

import (
	"bufio"
	"io"
	"strings"

	"github.com/cesanta/go-serial/serial"
	"github.com/juju/errors"

	"github.com/itohio/glitchprobe/proto"
)

var ErrNoBanner = errors.New("host: probe banner not seen")

// measureNoiseLimit bounds how many non-reply lines Measure tolerates
// before deciding the probe is gone.
const measureNoiseLimit = 8

// Options configure Open.
type Options struct {
	Port string
	Baud uint
}

// Session is one conversation with the measurement probe.
type Session struct {
	rw io.ReadWriter
	br *bufio.Reader
}

// Open opens the probe's CDC port. The probe emits its banner when the
// port is opened, so WaitBanner should follow.
func Open(opts Options) (*Session, error) {
	if opts.Baud == 0 {
		opts.Baud = 115200
	}
	sp, err := serial.Open(serial.OpenOptions{
		PortName:        opts.Port,
		BaudRate:        opts.Baud,
		DataBits:        8,
		ParityMode:      serial.PARITY_NONE,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", opts.Port)
	}
	logger.Infof("opened %s", opts.Port)
	return NewSession(sp), nil
}

// NewSession wraps an already-open transport.
func NewSession(rw io.ReadWriter) *Session {
	return &Session{rw: rw, br: bufio.NewReader(rw)}
}

func (s *Session) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WaitBanner drains boot noise until the probe announces itself, then
// consumes the prompt line. maxLines bounds how much noise is tolerated.
func (s *Session) WaitBanner(maxLines int) error {
	for i := 0; i < maxLines; i++ {
		line, err := s.readLine()
		if err != nil {
			return errors.Trace(err)
		}
		logger.Debugf("probe: %s", line)
		if line == proto.Banner {
			_, err := s.readLine() // prompt
			return errors.Trace(err)
		}
	}
	return ErrNoBanner
}

// Measure triggers one measurement cycle and classifies the reply. The
// payload content is irrelevant to the probe; it is logged so campaign
// records stay self-describing.
func (s *Session) Measure(payload string) Result {
	if strings.ContainsAny(payload, "\r\n") {
		return Result{State: StateError, Err: errors.Errorf("payload contains line breaks: %q", payload)}
	}
	if _, err := io.WriteString(s.rw, payload+"\n"); err != nil {
		return Result{State: StateError, Err: errors.Trace(err)}
	}
	// A rebooting target can interleave boot noise with the reply; only
	// lines carrying reply framing count.
	var line string
	for i := 0; ; i++ {
		l, err := s.readLine()
		if err != nil {
			return Result{State: StateError, Err: errors.Trace(err)}
		}
		if proto.IsReply(l) {
			line = l
			break
		}
		logger.Debugf("probe: %s", l)
		if i == measureNoiseLimit {
			return Result{State: StateError, Err: errors.Errorf("no reply within %d lines", measureNoiseLimit)}
		}
	}
	res := Classify(line)
	switch res.State {
	case StateExpected:
		logger.Debugf("counter %d", res.Counter)
	case StateSuccess:
		logger.Warnf("counter deviates: %d != %d", res.Counter, proto.WorkloadSize)
	case StateWarning:
		logger.Warnf("corrupt reply %q: %v", res.Line, res.Err)
	}
	return res
}

func (s *Session) readLine() (string, error) {
	line, err := s.br.ReadString('\n')
	if err != nil {
		return "", errors.Trace(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
