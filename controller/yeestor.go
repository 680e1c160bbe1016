package controller

import (
	"fmt"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

const yeestorMaxBanks = 16

// Magic LBA (mid, low) pairs R1..R5.
var yeestorLBAs = [][2]byte{
	{0x55, 0x00},
	{0x00, 0x55},
	{0xAA, 0x00},
	{0x00, 0xAA},
	{0x55, 0xAA},
}

// Manufacturer bytes a Yeestor response may start with.
var yeestorManufacturers = [...]byte{0x2C, 0x89, 0xAD, 0x45, 0xEC, 0x98, 0xC8, 0x9B, 0x01}

func yeestorManufacturer(id byte) bool {
	for _, m := range yeestorManufacturers {
		if m == id {
			return true
		}
	}
	return false
}

// ReadYeestor issues READ DMA to each magic LBA with device register 0x40
// and keeps the first response that starts with a known manufacturer byte
// and yields banks.
func ReadYeestor(dev ATA) (*flash.Result, error) {
	attempts := make([]flash.Attempt, 0, len(yeestorLBAs))
	for i, lba := range yeestorLBAs {
		mid, low := lba[0], lba[1]
		attempts = append(attempts, flash.Attempt{
			Name: fmt.Sprintf("R%d", i+1),
			Run:  func() (*flash.Result, error) { return yeestorRead(dev, mid, low) },
		})
	}
	return firstWithBanks("Yeestor/SiliconGo", attempts)
}

func yeestorRead(dev ATA, mid, low byte) (*flash.Result, error) {
	buf := make([]byte, 512)
	if err := dev.ReadDMA(ata.Taskfile{Command: 0xC8, Count: 1, LBALow: low, LBAMid: mid, Device: 0x40}, buf); err != nil {
		return nil, err
	}
	if !yeestorManufacturer(buf[0]) {
		return nil, fmt.Errorf("first byte 0x%02x is not a flash manufacturer: %w", buf[0], flash.ErrProtocolMismatch)
	}
	return &flash.Result{
		Controller: fmt.Sprintf("Yeestor/SiliconGo (DMA 0x%02X%02X)", mid, low),
		Banks:      flash.ScanUntilEmpty(buf, flash.IDLen, yeestorMaxBanks),
	}, nil
}
