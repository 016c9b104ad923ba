// Package proto defines the line protocol the measurement probe speaks
// over its USB serial port. It is shared between the probe firmware and
// the host tooling and therefore must stay free of host-only imports.
package proto

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// Banner is printed once, after the USB host connects.
	Banner = "RP2040 Test Program"
	// Prompt tells the host how to start a measurement.
	Prompt = "send something to start the counter."

	// WorkloadSize is the number of counter increments in a single
	// measurement. A non-faulted probe always reports exactly this value.
	WorkloadSize = 256
)

// The counter is printed twice between three fixed sentinels so the host
// can tell a measurement from boot noise and detect mid-line corruption.
const (
	head = "XXX"
	mid  = "YYY"
	tail = "ZZZ"
)

var (
	ErrFraming  = errors.New("proto: reply framing missing or corrupt")
	ErrMismatch = errors.New("proto: counter occurrences differ")
)

// FormatReply frames a counter value for one reply line, without the
// trailing newline.
func FormatReply(counter uint32) string {
	c := strconv.FormatUint(uint64(counter), 10)
	return head + c + mid + c + tail
}

// ParseReply extracts the counter from a reply line. Both occurrences of
// the counter must be present and equal; anything else is corruption.
func ParseReply(line string) (uint32, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, head) || !strings.HasSuffix(line, tail) || len(line) < len(head)+len(mid)+len(tail)+2 {
		return 0, ErrFraming
	}
	body := line[len(head) : len(line)-len(tail)]
	i := strings.Index(body, mid)
	if i < 0 {
		return 0, ErrFraming
	}
	first, second := body[:i], body[i+len(mid):]
	if first != second {
		return 0, ErrMismatch
	}
	v, err := strconv.ParseUint(first, 10, 32)
	if err != nil {
		return 0, ErrFraming
	}
	return uint32(v), nil
}

// IsReply reports whether line carries reply framing, valid or not.
// The host uses it to separate measurements from banner and boot noise.
func IsReply(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	return strings.HasPrefix(line, head) && strings.HasSuffix(line, tail)
}
