package controller

import (
	"fmt"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	tenafeBankOffset = 0x50
	tenafeMaxBanks   = 32
)

// ReadTenafe writes the fixed C1 config page and reads the flash id page
// back with C2.
func ReadTenafe(dev NVMe) (*flash.Result, error) {
	cfg := make([]byte, 4096)
	cfg[0x00] = 0x03
	cfg[0x02] = 0x0C
	cfg[0x04] = 0x01
	cfg[0x08] = 0x08
	cfg[0x0D] = 0x04
	cfg[0x11] = 0x04

	cmd := nvme.Command{Opcode: 0xC1, NSID: 1, CDW10: 0x400, CDW12: 0x08}
	if _, err := dev.AdminWrite(cmd, cfg); err != nil {
		return nil, fmt.Errorf("tenafe config write: %w", err)
	}
	buf := make([]byte, 4096)
	cmd.Opcode = 0xC2
	if _, err := dev.AdminRead(cmd, buf); err != nil {
		return nil, fmt.Errorf("tenafe flash id read: %w", err)
	}
	return &flash.Result{
		Controller: "Tenafe TC2200/TC2201",
		Banks:      flash.ScanSlots(buf, tenafeBankOffset, flash.IDLen, tenafeMaxBanks, flash.NotEmpty),
	}, nil
}
