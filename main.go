package main

import (
	"machine"
	"time"

	"device/arm"
	"runtime/volatile"

	"github.com/itohio/glitchprobe/config"
	"github.com/itohio/glitchprobe/dev"
	"github.com/itohio/glitchprobe/proto"
)

//go:generate tinygo flash -target=pico

var (
	trig = dev.TriggerPair{Coarse: config.Led, Fine: config.Trigger}

	// lastCount receives the counter register while the trigger window is
	// still open. Volatile, so the store cannot be sunk past the falling
	// edge.
	lastCount volatile.Register32
)

func main() {
	if err := trig.Configure(); err != nil {
		for {
			// unusable pin map, nothing sane to do
			time.Sleep(time.Second)
		}
	}

	// Blink at 2 Hz until the host opens the port.
	dev.BlinkUntil(config.Led, 2, machine.Serial.DTR)

	writeLine(proto.Banner)
	writeLine(proto.Prompt)

	for {
		readLine()
		dev.Critical(measureOnce)
		writeLine(proto.FormatReply(lastCount.Get()))
	}
}

// measureOnce runs one measurement cycle. Interrupts are already off.
// Between the fine trigger edges there is only the counted sequence and
// the single store of its result.
func measureOnce() {
	trig.Raise()
	lastCount.Set(uint32(arm.AsmFull(countedWorkload, nil)))
	trig.Drop()
}

// readLine blocks until a newline arrives. The content is irrelevant:
// any line, including an empty one, is a go token.
func readLine() {
	for {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			time.Sleep(500 * time.Microsecond)
			continue
		}
		if b == '\n' {
			return
		}
	}
}

func writeLine(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.WriteByte('\n')
}
