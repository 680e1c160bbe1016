package controller

import (
	"fmt"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

const (
	sandforceLogRequest  = 0xE0
	sandforceLogResponse = 0xE1
	sandforceMaxBanks    = 16
)

// ReadSandForce posts the flash id request to vendor SMART log 0xE0 and
// reads the answer from log 0xE1.
func ReadSandForce(dev ATA) (*flash.Result, error) {
	req := make([]byte, 512)
	req[0], req[1], req[2] = 0x01, 0x34, 0xC0
	write := ata.Taskfile{Command: ataSMART, Features: 0xD6, Count: 1, LBALow: sandforceLogRequest, LBAMid: smartLBAMid, LBAHigh: smartLBAHigh}
	if err := dev.Write(write, req); err != nil {
		return nil, fmt.Errorf("sandforce smart write log: %w", err)
	}

	buf := make([]byte, 512)
	read := ata.Taskfile{Command: ataSMART, Features: 0xD5, Count: 1, LBALow: sandforceLogResponse, LBAMid: smartLBAMid, LBAHigh: smartLBAHigh}
	if err := dev.Read(read, buf); err != nil {
		return nil, fmt.Errorf("sandforce smart read log 0x%02x: %w", sandforceLogResponse, err)
	}
	if !sandforceHasData(buf) {
		return nil, fmt.Errorf("sandforce flash id response: %w", flash.ErrEmpty)
	}

	banks := flash.ScanUntilEmpty(buf, flash.IDLen, sandforceMaxBanks)
	if len(banks) == 0 {
		return nil, fmt.Errorf("sandforce response has no leading flash id: %w", flash.ErrEmpty)
	}
	return &flash.Result{Controller: "SandForce", Banks: banks}, nil
}

// sandforceHasData reports whether any byte is neither 0x00 nor 0xFF.
func sandforceHasData(b []byte) bool {
	for _, c := range b {
		if c != 0x00 && c != 0xFF {
			return true
		}
	}
	return false
}
