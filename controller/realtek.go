package controller

import (
	"fmt"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	realtekOpUnlock = 0xFC
	realtekOpRead   = 0xFA
	realtekMaxBanks = 64
)

type realtekEncoding struct {
	variant RealtekVariant
	name    string
	cmd     nvme.Command
}

var (
	realtekV1 = realtekEncoding{RealtekV1, "RTS5762/63",
		nvme.Command{Opcode: realtekOpRead, CDW10: 0x80, CDW13: 0x00410000}}
	realtekV2 = realtekEncoding{RealtekV2, "RTS5765/66/72",
		nvme.Command{Opcode: realtekOpRead, CDW10: 0x80, CDW12: 0xAFF03860, CDW13: 0x00010001}}
)

// realtekEncodings returns the encodings tried for v. V1 always goes first:
// V1 reads work on V2 silicon while V2 reads can hang some V2 revisions.
func realtekEncodings(v RealtekVariant) []realtekEncoding {
	if v == RealtekV2 {
		return []realtekEncoding{realtekV1, realtekV2}
	}
	return []realtekEncoding{realtekV1}
}

// ReadRealtek unlocks and reads once per encoding and keeps the first read
// that yields banks. The unlock is repeated before every read because a
// vendor read can drop it.
func ReadRealtek(dev NVMe, v RealtekVariant) (*flash.Result, error) {
	var attempts []flash.Attempt
	for _, enc := range realtekEncodings(v) {
		attempts = append(attempts, flash.Attempt{
			Name: enc.variant.String(),
			Run:  func() (*flash.Result, error) { return realtekRead(dev, enc) },
		})
	}
	res, err := firstWithBanks("realtek", attempts)
	if err != nil {
		return nil, fmt.Errorf("realtek flash id read (variant %s): %w", v, err)
	}
	return res, nil
}

func realtekRead(dev NVMe, enc realtekEncoding) (*flash.Result, error) {
	if _, err := dev.AdminNoData(nvme.Command{Opcode: realtekOpUnlock, CDW13: 0x0050FFFF}); err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	buf := make([]byte, 512)
	if _, err := dev.AdminRead(enc.cmd, buf); err != nil {
		return nil, err
	}
	return &flash.Result{
		Controller: enc.name,
		Banks:      flash.ScanSlots(buf, 0, flash.IDLen, realtekMaxBanks, flash.KnownNotEmpty),
	}, nil
}
