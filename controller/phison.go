package controller

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sigurn/crc16"
	log "github.com/sirupsen/logrus"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	phisonOpcode     = 0xD2
	phisonSysinfoLen = 4096
	phisonBankLen    = 512
	phisonMaxBanks   = 8
	phisonNameMax    = 16
)

// Sysinfo offsets that carry flash ids on E12 and later parts.
var phisonSysinfoSlots = []int{0x70, 0x78, 0x80, 0x88, 0x90, 0x98, 0xA0}

// phisonCRC returns the CDW15 value Phison firmware expects: a CRC-CCITT
// (poly 0x1021, init 0, MSB first) over the first 60 bytes of a 64-byte
// command template, byte-swapped into the upper half.
func phisonCRC(opcode byte, cdw10, cdw12, cdw13 uint32) uint32 {
	var tmpl [64]byte
	tmpl[0] = opcode
	binary.LittleEndian.PutUint32(tmpl[0x28:], cdw10)
	binary.LittleEndian.PutUint32(tmpl[0x30:], cdw12)
	binary.LittleEndian.PutUint32(tmpl[0x34:], cdw13)
	crc := crcCCITT(tmpl[:60])
	return uint32(crc>>8|crc<<8) << 16
}

// CRC-16/XMODEM is CRC-CCITT with a zero init and no final xor.
var phisonCRCTable = crc16.MakeTable(crc16.CRC16_XMODEM)

func crcCCITT(b []byte) uint16 { return crc16.Checksum(b, phisonCRCTable) }

func phisonCommand(cdw10, cdw12 uint32) nvme.Command {
	return nvme.Command{
		Opcode: phisonOpcode,
		CDW10:  cdw10,
		CDW12:  cdw12,
		CDW15:  phisonCRC(phisonOpcode, cdw10, cdw12, 0),
	}
}

// ReadPhison reads the system info page, which must carry the Phison
// signature, and takes flash ids from it. Parts that do not publish ids
// there are queried bank by bank.
func ReadPhison(dev NVMe) (*flash.Result, error) {
	sysinfo := make([]byte, phisonSysinfoLen)
	if _, err := dev.AdminRead(phisonCommand(0x400, 0x80), sysinfo); err != nil {
		return nil, fmt.Errorf("phison system info read: %w", err)
	}
	if !bytes.Contains(sysinfo, phisonSignature) {
		return nil, fmt.Errorf("phison signature %q not in system info: %w", phisonSignature, flash.ErrProtocolMismatch)
	}

	res := &flash.Result{Controller: phisonName(sysinfo)}
	res.Banks = phisonSysinfoBanks(sysinfo)
	if len(res.Banks) > 0 {
		return res, nil
	}

	for bank := uint32(0); bank < phisonMaxBanks; bank++ {
		buf := make([]byte, phisonBankLen)
		if _, err := dev.AdminRead(phisonCommand(0x80, bank<<8|0x90), buf); err != nil {
			log.WithField("bank", bank).Debugf("phison bank read: %v", err)
			continue
		}
		if id := buf[:flash.IDLen]; !flash.IsBankEmpty(id) {
			res.Banks = append(res.Banks, flash.NewBank(bank, id))
		}
	}
	return res, nil
}

func phisonSysinfoBanks(sysinfo []byte) []flash.Bank {
	var banks []flash.Bank
next:
	for _, off := range phisonSysinfoSlots {
		slot := sysinfo[off : off+flash.IDLen]
		if !flash.KnownNotEmpty(slot) {
			continue
		}
		b := flash.NewBank(uint32(len(banks)), slot)
		for _, have := range banks {
			if have.ID == b.ID {
				continue next
			}
		}
		banks = append(banks, b)
	}
	return banks
}

// phisonName finds a PS50xx part number in the system info, then PS31xx.
func phisonName(sysinfo []byte) string {
	for _, tag := range []string{"PS50", "PS31"} {
		if i := bytes.Index(sysinfo, []byte(tag)); i >= 0 {
			return string(printableUntil(sysinfo[i:], phisonNameMax, isGraphic))
		}
	}
	return "Phison"
}
