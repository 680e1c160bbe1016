package nvme

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// IDENTIFY CONTROLLER parameters.
const (
	OpIdentify    = 0x06
	CNSController = 1
	IdentifyLen   = 4096
)

// ControllerInfo holds the identification fields of IDENTIFY CONTROLLER.
type ControllerInfo struct {
	VID      uint16
	SSVID    uint16
	Serial   string
	Model    string
	Firmware string
}

// IdentifyController runs IDENTIFY with CNS 1.
func (d *Device) IdentifyController() (*ControllerInfo, error) {
	buf := make([]byte, IdentifyLen)
	if _, err := d.AdminRead(Command{Opcode: OpIdentify, CDW10: CNSController}, buf); err != nil {
		return nil, fmt.Errorf("identify controller: %w", err)
	}
	return ParseIdentify(buf), nil
}

// ParseIdentify decodes the leading fields of an IDENTIFY CONTROLLER page.
// Short input yields a zero value.
func ParseIdentify(data []byte) *ControllerInfo {
	if len(data) < 72 {
		return &ControllerInfo{}
	}
	return &ControllerInfo{
		VID:      binary.LittleEndian.Uint16(data[0:2]),
		SSVID:    binary.LittleEndian.Uint16(data[2:4]),
		Serial:   asciiTrim(data[4:24]),
		Model:    asciiTrim(data[24:64]),
		Firmware: asciiTrim(data[64:72]),
	}
}

func asciiTrim(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			c = ' '
		}
		out[i] = c
	}
	return strings.TrimSpace(string(out))
}
