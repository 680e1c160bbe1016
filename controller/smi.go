package controller

import (
	"bytes"
	"fmt"
	"strings"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	smiBankStart = 0x30
	smiBankEnd   = 0x1F0
	smiNameOff   = 0x1F0
)

// ReadSMI reads the 2 KiB vendor page. Flash ids sit in 8-byte slots from
// 0x30 up to the controller name at 0x1F0; slots without a JEDEC
// manufacturer byte are noise.
func ReadSMI(dev NVMe) (*flash.Result, error) {
	buf := make([]byte, 2048)
	if _, err := dev.AdminRead(nvme.Command{Opcode: 0xC2, CDW10: 0x200, CDW12: 0x40, CDW13: 0x01}, buf); err != nil {
		return nil, fmt.Errorf("smi flash id read: %w", err)
	}
	return &flash.Result{
		Controller: smiName(buf[smiNameOff:]),
		Banks:      flash.ScanSlots(buf, smiBankStart, flash.IDLen, (smiBankEnd-smiBankStart)/flash.IDLen, flash.KnownNotEmpty),
	}, nil
}

func smiName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			c = ' '
		}
		out[i] = c
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		return s
	}
	return "SMI"
}
