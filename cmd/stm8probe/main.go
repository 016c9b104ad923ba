// Command stm8probe prepares and deploys the STM8L target-side probe.
// It assembles the bootloader-path image, can emit it as Intel HEX,
// and talks the serial bootloader protocol to flash and verify a
// connected target and to inspect its boot option byte.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/cesanta/go-serial/serial"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/itohio/glitchprobe/stm8"
)

var (
	port          = flag.String("port", "", "programmer serial port; omit to only emit the image")
	baud          = flag.Uint("baud", 115200, "baud rate")
	hexOut        = flag.String("hex", "", "write the image as Intel HEX to this file, - for stdout")
	hexIn         = flag.String("input", "", "flash this Intel HEX file instead of the built-in probe")
	alwaysSuccess = flag.Bool("always-success", false, "build the self-test variant that always reports success")
	readOption    = flag.Bool("read-option", false, "read back the boot option byte after flashing")
)

var log = logrus.New()

func main() {
	flag.Parse()
	log.Formatter = &prefixed.TextFormatter{FullTimestamp: true}

	images, err := buildImages()
	if err != nil {
		log.Fatal(err)
	}

	if *hexOut != "" {
		if err := emitHex(images); err != nil {
			log.Fatal(err)
		}
	}

	if *port == "" {
		if *hexOut == "" {
			log.Warn("no -port and no -hex; nothing to do")
		}
		return
	}

	sp, err := serial.Open(serial.OpenOptions{
		PortName:        *port,
		BaudRate:        *baud,
		DataBits:        8,
		ParityMode:      serial.PARITY_EVEN,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		log.Fatalf("open %s: %v", *port, err)
	}
	defer sp.Close()

	p := stm8.NewProgrammer(sp)
	for _, img := range images {
		log.Infof("flashing %d bytes at 0x%04X", len(img.Data), img.Addr)
		if err := p.Flash(img); err != nil {
			log.Fatal(err)
		}
	}
	log.Info("flash verified")

	if *readOption {
		opt, err := p.ReadOption()
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("boot option byte: 0x%02X", opt)
	}
}

func buildImages() ([]stm8.Image, error) {
	if *hexIn != "" {
		f, err := os.Open(*hexIn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return stm8.ParseIntelHex(f)
	}
	img, err := stm8.BootPath(stm8.Config{AlwaysSuccess: *alwaysSuccess})
	if err != nil {
		return nil, err
	}
	return []stm8.Image{img}, nil
}

func emitHex(images []stm8.Image) error {
	w := os.Stdout
	if *hexOut != "-" {
		f, err := os.Create(*hexOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	for _, img := range images {
		if _, err := io.WriteString(w, img.EncodeIntelHex()); err != nil {
			return err
		}
	}
	return nil
}
