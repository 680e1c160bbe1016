package controller

import "ssdflashid/flash"

// Some controllers (Yeestor/SiliconGo among them) copy a flash id into
// vendor-specific IDENTIFY DEVICE words 147-151, unswapped.
const identifyFIDOffset = 0x127

// FlashIDFromIdentify extracts a flash id embedded in IDENTIFY DEVICE data.
func FlashIDFromIdentify(raw []byte) (*flash.Result, bool) {
	if len(raw) < identifyFIDOffset+flash.IDLen {
		return nil, false
	}
	id := raw[identifyFIDOffset : identifyFIDOffset+flash.IDLen]
	if !flash.KnownNotEmpty(id) {
		return nil, false
	}
	return &flash.Result{
		Controller: "SATA (from ATA IDENTIFY)",
		Banks:      []flash.Bank{flash.NewBank(0, id)},
	}, true
}
