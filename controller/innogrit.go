package controller

import (
	"encoding/binary"
	"fmt"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	innogritOpcode    = 0xF2
	innogritMagic14   = 0x54495247 // "GRIT"
	innogritMagic15   = 0x4F4E4E49 // "INNO"
	innogritDIDOffset = 0x62E
	innogritEntryLen  = 6
)

// innogritLayout locates the flash id table for a device id.
func innogritLayout(did uint16) (off, count int) {
	switch did {
	case 0x5208, 0x5216:
		return 0x548, 32
	}
	return 0x24E, 64
}

// ReadInnogrit reads the vendor info page keyed by the two magic words. The
// device id in the page selects the table layout; entries are 6 bytes and
// are zero padded to a full id.
func ReadInnogrit(dev NVMe) (*flash.Result, error) {
	buf := make([]byte, 4096)
	if _, err := dev.AdminRead(nvme.Command{Opcode: innogritOpcode, CDW10: 0x400, CDW14: innogritMagic14, CDW15: innogritMagic15}, buf); err != nil {
		return nil, fmt.Errorf("innogrit vendor read: %w", err)
	}
	did := binary.LittleEndian.Uint16(buf[innogritDIDOffset:])
	off, count := innogritLayout(did)
	return &flash.Result{
		Controller: fmt.Sprintf("IG%04X", did),
		Banks:      flash.ScanSlots(buf, off, innogritEntryLen, count, flash.NotEmpty),
	}, nil
}
