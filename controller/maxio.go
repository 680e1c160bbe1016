package controller

import (
	"bytes"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

const (
	maxioOpPrepare = 0xC1
	maxioOpRead    = 0xC2

	maxioSubFirmwareID = 0x86
	maxioSubFlashID    = 0x36

	maxioChannels = 8
	maxioCEs      = 8
)

// Model tags in the bulk response, most specific first.
var maxioModels = []string{
	",MAP1602", ",MAP1601", ",MAP1202", ",MAP1201", ",MAP1003", ",MAP1002", ",MAP1001",
}

// maxioPrepare sends the C1 payload that selects what the next C2 read returns.
func maxioPrepare(dev NVMe, sub, ch, ce byte) error {
	buf := make([]byte, 512)
	buf[0], buf[1] = 0xFF, 0xE5
	buf[2], buf[3], buf[4] = sub, ch, ce
	_, err := dev.AdminWrite(nvme.Command{Opcode: maxioOpPrepare, CDW10: 0x80, CDW12: 0x001234FF, CDW13: 0x01}, buf)
	if err != nil {
		return fmt.Errorf("maxio prepare (subcmd 0x%02x): %w", sub, err)
	}
	return nil
}

// ReadMaxio reads the bulk firmware id for the model name, then walks every
// channel and chip enable. A slot whose prepare or read fails is skipped and
// does not consume a bank number.
func ReadMaxio(dev NVMe) (*flash.Result, error) {
	if err := maxioPrepare(dev, maxioSubFirmwareID, 0, 0); err != nil {
		return nil, err
	}
	bulk := make([]byte, 4096)
	if _, err := dev.AdminRead(nvme.Command{Opcode: maxioOpRead, CDW10: 0x400, CDW12: 0x123486, CDW13: 0x08}, bulk); err != nil {
		return nil, fmt.Errorf("maxio bulk flash id read: %w", err)
	}

	res := &flash.Result{Controller: maxioName(bulk)}
	var num uint32
	for ch := byte(0); ch < maxioChannels; ch++ {
		for ce := byte(0); ce < maxioCEs; ce++ {
			l := log.WithFields(log.Fields{"channel": ch, "ce": ce})
			if err := maxioPrepare(dev, maxioSubFlashID, ch, ce); err != nil {
				l.Debug(err)
				continue
			}
			buf := make([]byte, 512)
			if _, err := dev.AdminRead(nvme.Command{Opcode: maxioOpRead, CDW10: 0x80, CDW12: 0x123436, CDW13: 0x01}, buf); err != nil {
				l.Debugf("maxio flash id read: %v", err)
				continue
			}
			if id := buf[:flash.IDLen]; !flash.IsBankEmpty(id) {
				res.Banks = append(res.Banks, flash.NewBank(num, id))
			}
			num++
		}
	}
	return res, nil
}

func maxioName(bulk []byte) string {
	for _, m := range maxioModels {
		if bytes.Contains(bulk, []byte(m)) {
			return m[1:]
		}
	}
	return "Maxio MAP"
}
