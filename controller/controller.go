// Package controller identifies the SSD controller family behind a device
// and runs that family's vendor command sequence to recover raw NAND flash
// identifiers.
package controller

import (
	"fmt"
	"strings"

	"ssdflashid/ata"
	"ssdflashid/nvme"
)

// NVMe is the admin command surface the NVMe extractors need.
// *nvme.Device implements it.
type NVMe interface {
	AdminRead(c nvme.Command, buf []byte) (uint32, error)
	AdminWrite(c nvme.Command, buf []byte) (uint32, error)
	AdminNoData(c nvme.Command) (uint32, error)
}

// ATA is the register-level command surface the SATA extractors need.
// *ata.Device implements it.
type ATA interface {
	Read(tf ata.Taskfile, buf []byte) error
	ReadDMA(tf ata.Taskfile, buf []byte) error
	Write(tf ata.Taskfile, buf []byte) error
	NoData(tf ata.Taskfile) error
	ReadExt(tf ata.Taskfile, hob ata.HOB, buf []byte) error
	NoDataExt(tf ata.Taskfile, hob ata.HOB) error
}

// Bus is the host interface a family is reached through.
type Bus int

const (
	BusNVMe Bus = iota + 1
	BusSATA
)

func (b Bus) String() string {
	switch b {
	case BusNVMe:
		return "nvme"
	case BusSATA:
		return "sata"
	}
	return "unknown"
}

// Family is a controller family with its own flash-id protocol.
type Family int

const (
	Unknown Family = iota
	SMI
	Realtek
	Phison
	Maxio
	Marvell
	Innogrit
	Tenafe
	JMicron
	SMISATA
	Yeestor
	SandForce
	RealtekSATA
)

type familyInfo struct {
	key     string // command-line name
	short   string // used in forced type names
	display string
	bus     Bus
}

var familyTable = map[Family]familyInfo{
	SMI:         {"smi", "SMI", "Silicon Motion", BusNVMe},
	Realtek:     {"rtl", "Realtek", "Realtek", BusNVMe},
	Phison:      {"phison", "Phison", "Phison", BusNVMe},
	Maxio:       {"maxio", "Maxio", "Maxio", BusNVMe},
	Marvell:     {"marvell", "Marvell", "Marvell", BusNVMe},
	Innogrit:    {"innogrit", "Innogrit", "Innogrit", BusNVMe},
	Tenafe:      {"tenafe", "Tenafe", "Tenafe", BusNVMe},
	JMicron:     {"jm", "JMicron", "JMicron/Maxio", BusSATA},
	SMISATA:     {"smi-sata", "SMI", "Silicon Motion", BusSATA},
	Yeestor:     {"yeestor", "Yeestor", "Yeestor/SiliconGo", BusSATA},
	SandForce:   {"sandforce", "SandForce", "SandForce", BusSATA},
	RealtekSATA: {"rtl-sata", "Realtek", "Realtek", BusSATA},
}

// Command-line order of each bus's families.
var (
	nvmeFamilies = []Family{SMI, Realtek, Phison, Maxio, Marvell, Innogrit, Tenafe}
	sataFamilies = []Family{JMicron, SMISATA, Yeestor, SandForce, RealtekSATA}
)

// String returns the command-line name of f.
func (f Family) String() string {
	if fi, ok := familyTable[f]; ok {
		return fi.key
	}
	return "unknown"
}

// DisplayName returns the vendor name shown in reports.
func (f Family) DisplayName() string {
	if fi, ok := familyTable[f]; ok {
		return fi.display
	}
	return "Unknown"
}

// Bus returns the interface f is reached through.
func (f Family) Bus() Bus { return familyTable[f].bus }

// NVMeFamilies lists the families selectable for NVMe devices.
func NVMeFamilies() []Family { return append([]Family(nil), nvmeFamilies...) }

// SATAFamilies lists the families selectable for SATA devices.
func SATAFamilies() []Family { return append([]Family(nil), sataFamilies...) }

// FamilyNames joins the command-line names of fs.
func FamilyNames(fs []Family) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}

// ParseFamily resolves a command-line family name.
func ParseFamily(name string) (Family, error) {
	for f, fi := range familyTable {
		if fi.key == name {
			return f, nil
		}
	}
	return Unknown, fmt.Errorf("unknown controller type %q (nvme: %s; sata: %s)",
		name, FamilyNames(nvmeFamilies), FamilyNames(sataFamilies))
}

// RealtekVariant selects between the two Realtek NVMe command encodings.
type RealtekVariant int

const (
	RealtekV1 RealtekVariant = iota + 1 // RTS5762/63
	RealtekV2                           // RTS5765/66/72
)

func (v RealtekVariant) String() string {
	switch v {
	case RealtekV1:
		return "v1"
	case RealtekV2:
		return "v2"
	}
	return ""
}

// ParseRealtekVariant resolves "v1" or "v2".
func ParseRealtekVariant(s string) (RealtekVariant, error) {
	switch s {
	case "v1":
		return RealtekV1, nil
	case "v2":
		return RealtekV2, nil
	}
	return 0, fmt.Errorf("unknown rtl variant %q (expected v1 or v2)", s)
}

// Type is a detected or forced NVMe controller: a family, the name it was
// recognised as and, for Realtek only, the protocol variant.
type Type struct {
	Family  Family
	Name    string
	Variant RealtekVariant
}

// Forced returns the type used when the caller names an NVMe family instead
// of detecting it. A forced Realtek type starts at V1.
func Forced(f Family) (Type, error) {
	fi, ok := familyTable[f]
	if !ok || fi.bus != BusNVMe {
		return Type{}, fmt.Errorf("controller type %q is not an nvme type (valid: %s)",
			f, FamilyNames(nvmeFamilies))
	}
	t := Type{Family: f, Name: fi.short + " (forced)"}
	if f == Realtek {
		t.Variant = RealtekV1
	}
	return t, nil
}

// WithVariant overrides the Realtek variant. Other families are returned
// unchanged.
func (t Type) WithVariant(v RealtekVariant) Type {
	if t.Family == Realtek {
		t.Variant = v
	}
	return t
}

func (t Type) String() string {
	if t.Family == Realtek {
		return fmt.Sprintf("%s (%s %s)", t.Name, t.Family.DisplayName(), t.Variant)
	}
	return fmt.Sprintf("%s (%s)", t.Name, t.Family.DisplayName())
}
