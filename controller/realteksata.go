package controller

import (
	"fmt"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

const (
	realtekSATAMaxBanks = 8
	realtekSATAOpRead   = 0xFA
)

// ATA firmware revision prefixes of Realtek SATA parts.
var realtekSATAFirmware = []prefixName{
	{"REALTEK_RL6468", "RTS5732"},
	{"REALTEK_RL6531", "RTS5733"},
	{"REALTEK_RL6643", "RTS5735"},
}

// ReadRealtekSATA sends the setup command, then tries the primary flash id
// read and the extended one.
func ReadRealtekSATA(dev ATA) (*flash.Result, error) {
	setup := ata.Taskfile{Command: 0xFC, Features: 0x50, Count: 0xFF, Device: ata.DeviceLBA}
	if err := dev.NoDataExt(setup, ata.HOB{Count: 0xFF}); err != nil {
		return nil, fmt.Errorf("realtek sata setup: %w", err)
	}
	return firstWithBanks("Realtek SATA", []flash.Attempt{
		{Name: "fid", Run: func() (*flash.Result, error) {
			tf := ata.Taskfile{Command: realtekSATAOpRead, Features: 0x01, Count: 1, LBALow: 0x20, LBAMid: 0x04, LBAHigh: 0xF0, Device: ata.DeviceLBA}
			return realtekSATAFlashID(dev, "Realtek SATA", tf, ata.HOB{LBALow: 0xAF})
		}},
		{Name: "fid2", Run: func() (*flash.Result, error) {
			tf := ata.Taskfile{Command: realtekSATAOpRead, Features: 0x41, Count: 1, Device: ata.DeviceLBA}
			return realtekSATAFlashID(dev, "Realtek SATA (ext)", tf, ata.HOB{})
		}},
	})
}

func realtekSATAFlashID(dev ATA, name string, tf ata.Taskfile, hob ata.HOB) (*flash.Result, error) {
	buf := make([]byte, 512)
	if err := dev.ReadExt(tf, hob, buf); err != nil {
		return nil, err
	}
	return &flash.Result{
		Controller: name,
		Banks:      flash.ScanUntilEmpty(buf, flash.IDLen, realtekSATAMaxBanks),
	}, nil
}
