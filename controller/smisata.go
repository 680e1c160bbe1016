package controller

import (
	"fmt"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

const (
	smiSATAMaxBanks = 16
	ataSMART        = 0xB0
	smartLBAMid     = 0x4F
	smartLBAHigh    = 0xC2
)

// ATA firmware revision prefixes of SMI SATA parts.
var smiSATAFirmware = []prefixName{
	{"SM2246AA-", "SM2246EN/XT"},
	{"SM2256AB-", "SM2256/S"},
	{"SM2258AB-", "SM2258/XT"},
	{"SM2259AB-", "SM2259/XT"},
	{"SM2259AC-", "SM2259XT2"},
}

// ReadSMISATA tries the SMART flash id first, then the two magic-LBA READ
// SECTORS responses R1 and R5. A failed read moves on to the next source.
func ReadSMISATA(dev ATA) (*flash.Result, error) {
	return firstWithBanks("SMI SATA", []flash.Attempt{
		{Name: "smart", Run: func() (*flash.Result, error) { return smiSMARTFlashID(dev) }},
		{Name: "R1", Run: func() (*flash.Result, error) { return smiMagicLBA(dev, "R1", 0x00) }},
		{Name: "R5", Run: func() (*flash.Result, error) { return smiMagicLBA(dev, "R5", 0x55) }},
	})
}

func smiSMARTFlashID(dev ATA) (*flash.Result, error) {
	buf := make([]byte, 512)
	tf := ata.Taskfile{Command: ataSMART, Count: 1, LBAMid: smartLBAMid, LBAHigh: smartLBAHigh, Device: 0x40}
	if err := dev.Read(tf, buf); err != nil {
		return nil, fmt.Errorf("smart flash id: %w", err)
	}
	res := &flash.Result{Controller: "SM2259/XT (SMART FID)"}
	if id := buf[:flash.IDLen]; !flash.IsBankEmpty(id) {
		res.Banks = []flash.Bank{flash.NewBank(0, id)}
	}
	return res, nil
}

func smiMagicLBA(dev ATA, tag string, mid byte) (*flash.Result, error) {
	buf := make([]byte, 512)
	tf := ata.Taskfile{Command: 0x20, Count: 1, LBALow: 0xAA, LBAMid: mid, Device: ata.DeviceLBA}
	if err := dev.Read(tf, buf); err != nil {
		return nil, fmt.Errorf("magic lba %s: %w", tag, err)
	}
	return &flash.Result{
		Controller: fmt.Sprintf("SM2259/XT (%s)", tag),
		Banks:      flash.ScanUntilEmpty(buf, flash.IDLen, smiSATAMaxBanks),
	}, nil
}
