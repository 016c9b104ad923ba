// Command probectl runs a measurement campaign against the RP2040
// probe: it opens the probe's serial port, waits for the banner, then
// triggers measurement cycles and tallies how each reply classifies.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/itohio/glitchprobe/host"
)

var (
	port    = flag.String("port", "", "probe serial port, e.g. /dev/ttyACM0")
	baud    = flag.Uint("baud", 115200, "baud rate")
	count   = flag.Int("n", 1, "number of measurement cycles")
	payload = flag.String("payload", "go", "command line sent to start each cycle")
	verbose = flag.Bool("v", false, "log every reply")
)

func main() {
	flag.Parse()
	log := logrus.New()
	log.Formatter = &prefixed.TextFormatter{FullTimestamp: true}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	host.SetLogger(log)

	if *port == "" {
		log.Error("-port is required")
		flag.Usage()
		os.Exit(2)
	}

	s, err := host.Open(host.Options{Port: *port, Baud: *baud})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	if err := s.WaitBanner(32); err != nil {
		log.Fatal(err)
	}

	var tally [4]int
	for i := 0; i < *count; i++ {
		res := s.Measure(*payload)
		tally[res.State]++
		if res.State == host.StateError {
			log.Errorf("cycle %d: %v", i, res.Err)
			break
		}
	}

	log.Infof("expected=%d success=%d warning=%d error=%d",
		tally[host.StateExpected], tally[host.StateSuccess],
		tally[host.StateWarning], tally[host.StateError])

	if tally[host.StateWarning] > 0 || tally[host.StateError] > 0 {
		os.Exit(1)
	}
}
