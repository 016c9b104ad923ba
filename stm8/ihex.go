package stm8

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
)

const ihexRecLen = 16

// EncodeIntelHex renders the image as type-00 data records followed by
// the end-of-file record. Addresses on this part fit in 16 bits, so no
// extended-address records are needed.
func (img Image) EncodeIntelHex() string {
	var b strings.Builder
	for off := 0; off < len(img.Data); off += ihexRecLen {
		end := off + ihexRecLen
		if end > len(img.Data) {
			end = len(img.Data)
		}
		writeIhexRecord(&b, img.Addr+uint16(off), 0x00, img.Data[off:end])
	}
	writeIhexRecord(&b, 0, 0x01, nil)
	return b.String()
}

func writeIhexRecord(b *strings.Builder, addr uint16, typ byte, data []byte) {
	fmt.Fprintf(b, ":%02X%04X%02X", len(data), addr, typ)
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	for _, v := range data {
		fmt.Fprintf(b, "%02X", v)
		sum += v
	}
	fmt.Fprintf(b, "%02X\n", byte(0)-sum)
}

// ParseIntelHex decodes type-00/01 records into images, merging records
// that continue at the address where the previous one ended.
func ParseIntelHex(r io.Reader) ([]Image, error) {
	var imgs []Image
	scanner := bufio.NewScanner(r)
	lineNo := 0
	eof := false
	for scanner.Scan() {
		lineNo++
		l := strings.TrimSpace(scanner.Text())
		if l == "" {
			continue
		}
		if eof {
			return nil, errors.Errorf("line %d: record after end-of-file", lineNo)
		}
		if l[0] != ':' {
			return nil, errors.Errorf("line %d: invalid start of record", lineNo)
		}
		raw, err := hex.DecodeString(l[1:])
		if err != nil {
			return nil, errors.Annotatef(err, "line %d", lineNo)
		}
		if len(raw) < 5 {
			return nil, errors.Errorf("line %d: record too short", lineNo)
		}
		n := int(raw[0])
		if len(raw) != 5+n {
			return nil, errors.Errorf("line %d: length %d does not match count %d", lineNo, len(raw)-5, n)
		}
		var sum byte
		for _, v := range raw {
			sum += v
		}
		if sum != 0 {
			return nil, errors.Errorf("line %d: bad checksum", lineNo)
		}
		addr := uint16(raw[1])<<8 | uint16(raw[2])
		data := raw[4 : 4+n]
		switch raw[3] {
		case 0x00:
			last := len(imgs) - 1
			if last >= 0 && imgs[last].Addr+uint16(len(imgs[last].Data)) == addr {
				imgs[last].Data = append(imgs[last].Data, data...)
			} else {
				imgs = append(imgs, Image{Addr: addr, Data: append([]byte(nil), data...)})
			}
		case 0x01:
			eof = true
		default:
			return nil, errors.Errorf("line %d: unsupported record type 0x%02x", lineNo, raw[3])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if !eof {
		return nil, errors.New("missing end-of-file record")
	}
	return imgs, nil
}
