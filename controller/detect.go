package controller

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"ssdflashid/flash"
	"ssdflashid/nvme"
)

type prefixName struct {
	prefix string
	name   string
}

var realtekFirmware = []struct {
	prefix  string
	name    string
	variant RealtekVariant
}{
	{"REALTEK_RL6447", "RTS5762/63", RealtekV1},
	{"REALTEK_RL6577", "RTS5765/66", RealtekV2},
	{"REALTEK_RL6817", "RTS5772", RealtekV2},
}

// Longer prefixes of the same part come first.
var smiFirmware = []prefixName{
	{"2260ROM:", "SM2260"},
	{"2262ROM:", "SM2262"},
	{"2262B0ROM:", "SM2262EN"},
	{"2262B1ROM:", "SM2262EN"},
	{"2262BCROM:", "SM2262EN"},
	{"2263ROM:", "SM2263EN"},
	{"2264ROM:", "SM2264"},
	{"2264ABROM:", "SM2264"},
	{"2265ABROM:", "SM2265"},
	{"2265", "SM2265"},
	{"2267ABROM:", "SM2267"},
	{"2267", "SM2267"},
	{"2268", "SM2268"},
	{"2269", "SM2269"},
	{"2270ROM:", "SM2270"},
	{"2270", "SM2270"},
	{"2508", "SM2508"},
	{"8366", "SM8366"},
}

var smiModelFragments = []string{"SM22", "SM25", "SM83"}

const (
	smiVendorID = 0x2646
	tenafeModel = "Merak Nvme Ssd Controller"
)

func matchPrefix(table []prefixName, s string) (string, bool) {
	for _, p := range table {
		if strings.HasPrefix(s, p.prefix) {
			return p.name, true
		}
	}
	return "", false
}

// Detect classifies the controller behind dev. Identification strings are
// matched first (Realtek firmware, then SMI firmware, model and vendor id,
// then the Tenafe model); only when none match are the vendor probes sent,
// in the order Phison, Maxio, Marvell, Innogrit. A failing probe moves on to
// the next one. When nothing matches the error wraps flash.ErrNotDetected.
func Detect(dev NVMe, info *nvme.ControllerInfo) (Type, error) {
	if t, ok := detectPassive(info); ok {
		log.WithField("type", t.String()).Debug("controller matched identify data")
		return t, nil
	}
	for _, p := range probes {
		t, ok := p.run(dev)
		if ok {
			log.WithField("type", t.String()).Debugf("%s probe matched", p.name)
			return t, nil
		}
		log.Debugf("%s probe did not match", p.name)
	}
	return Type{}, fmt.Errorf("model %q firmware %q vid 0x%04x ssvid 0x%04x: %w",
		info.Model, info.Firmware, info.VID, info.SSVID, flash.ErrNotDetected)
}

func detectPassive(info *nvme.ControllerInfo) (Type, bool) {
	for _, r := range realtekFirmware {
		if strings.HasPrefix(info.Firmware, r.prefix) {
			return Type{Family: Realtek, Name: r.name, Variant: r.variant}, true
		}
	}
	if name, ok := matchPrefix(smiFirmware, info.Firmware); ok {
		return Type{Family: SMI, Name: name}, true
	}
	for _, frag := range smiModelFragments {
		if strings.Contains(info.Model, frag) {
			return Type{Family: SMI, Name: "SMI (by model)"}, true
		}
	}
	if info.VID == smiVendorID || info.SSVID == smiVendorID {
		return Type{Family: SMI, Name: "SMI (by VID)"}, true
	}
	if info.Model == tenafeModel {
		return Type{Family: Tenafe, Name: "Merak"}, true
	}
	return Type{}, false
}

type probe struct {
	name string
	run  func(NVMe) (Type, bool)
}

var probes = []probe{
	{"phison", probePhison},
	{"maxio", probeMaxio},
	{"marvell", probeMarvell},
	{"innogrit", probeInnogrit},
}

const probeLen = 4096

var (
	phisonSignature = []byte("PhIsOnNo")
	maxioTag        = []byte(",MAP1")
)

func probePhison(dev NVMe) (Type, bool) {
	buf := make([]byte, probeLen)
	if _, err := dev.AdminRead(nvme.Command{Opcode: phisonOpcode}, buf); err != nil {
		return Type{}, false
	}
	if !bytes.Contains(buf, phisonSignature) {
		return Type{}, false
	}
	return Type{Family: Phison, Name: "Phison"}, true
}

func probeMaxio(dev NVMe) (Type, bool) {
	for _, op := range []byte{maxioOpPrepare, maxioOpRead} {
		buf := make([]byte, probeLen)
		if _, err := dev.AdminRead(nvme.Command{Opcode: op}, buf); err != nil {
			continue
		}
		if bytes.Contains(buf, maxioTag) {
			return Type{Family: Maxio, Name: "Maxio"}, true
		}
	}
	return Type{}, false
}

func probeMarvell(dev NVMe) (Type, bool) {
	buf := make([]byte, probeLen)
	if _, err := dev.AdminRead(nvme.Command{Opcode: marvellOpRead, CDW15: marvellFirmwareCDW15}, buf); err != nil {
		return Type{}, false
	}
	for _, sig := range marvellSignatures {
		if bytes.HasPrefix(buf, sig) {
			return Type{Family: Marvell, Name: string(sig)}, true
		}
	}
	return Type{}, false
}

func probeInnogrit(dev NVMe) (Type, bool) {
	buf := make([]byte, probeLen)
	if _, err := dev.AdminRead(nvme.Command{Opcode: innogritOpcode, CDW14: innogritMagic14, CDW15: innogritMagic15}, buf); err != nil {
		return Type{}, false
	}
	if !anyNonZero(buf) {
		return Type{}, false
	}
	name := "Innogrit"
	if did := binary.LittleEndian.Uint16(buf[innogritDIDOffset:]); did != 0 {
		name = fmt.Sprintf("Innogrit (DID 0x%04X)", did)
	}
	return Type{Family: Innogrit, Name: name}, true
}
