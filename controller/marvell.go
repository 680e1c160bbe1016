package controller

import (
	"bytes"
	"fmt"
	"strings"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	marvellOpWrite        = 0xFD
	marvellOpRead         = 0xFE
	marvellFirmwareCDW15  = 0xA1
	marvellFlashIDAddress = 0x6299
	marvellFlashIDCDW15   = 0x50
	marvellMaxBanks       = 64
	marvellNameMax        = 64
)

var marvellSignatures = [][]byte{[]byte("DM1160"), []byte("DM1140")}

// ReadMarvell checks the firmware signature, requests the flash id table and
// reads it back from the same vendor address.
func ReadMarvell(dev NVMe) (*flash.Result, error) {
	fw := make([]byte, 512)
	if _, err := dev.AdminRead(nvme.Command{Opcode: marvellOpRead, CDW10: 0x80, CDW15: marvellFirmwareCDW15}, fw); err != nil {
		return nil, fmt.Errorf("marvell firmware info read: %w", err)
	}
	matched := false
	for _, sig := range marvellSignatures {
		if bytes.HasPrefix(fw, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("not a Marvell 88NV1160/1140 controller (got % x): %w", fw[:6], flash.ErrProtocolMismatch)
	}

	req := make([]byte, 512)
	req[0] = 0x01
	write := nvme.Command{Opcode: marvellOpWrite, CDW10: 0x80, CDW14: marvellFlashIDAddress, CDW15: marvellFlashIDCDW15}
	if _, err := dev.AdminWrite(write, req); err != nil {
		return nil, fmt.Errorf("marvell flash id request: %w", err)
	}

	ids := make([]byte, 1024)
	read := nvme.Command{Opcode: marvellOpRead, CDW10: 0x100, CDW14: marvellFlashIDAddress, CDW15: marvellFlashIDCDW15}
	if _, err := dev.AdminRead(read, ids); err != nil {
		return nil, fmt.Errorf("marvell flash id read: %w", err)
	}

	return &flash.Result{
		Controller: marvellName(fw),
		Banks:      flash.ScanSlots(ids, 0, flash.IDLen, marvellMaxBanks, flash.NotEmpty),
	}, nil
}

func marvellName(fw []byte) string {
	name := printableUntil(fw, marvellNameMax, func(c byte) bool { return c >= 0x20 && c < 0x7F })
	if s := strings.TrimSpace(string(name)); s != "" {
		return s
	}
	return "Marvell 88NV1160"
}
