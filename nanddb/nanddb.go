// Package nanddb turns raw NAND flash ids into a short human description:
// manufacturer, process/layer generation, cell type and page size.
package nanddb

import (
	"bytes"
	"fmt"
	"strings"
)

// Unknown is returned for manufacturers or ids that cannot be described.
const Unknown = "Unknown"

type entry struct {
	key  byte
	name string
}

// pattern matches the id bytes starting at off. Patterns at offset 0
// include the manufacturer byte.
type pattern struct {
	desc string
	off  int
	id   []byte
}

var manufacturers = []entry{
	{0x01, "Spansion"},
	{0x04, "Fujitsu"},
	{0x07, "Renesas"},
	{0x20, "STMicro"},
	{0x2C, "Micron"},
	{0x45, "SanDisk"},
	{0x4A, "SMIC"},
	{0x51, "Qimonda"},
	{0x89, "Intel"},
	{0x92, "ESMT(PowerChip)"},
	{0x98, "Toshiba/Kioxia"},
	{0x9B, "YMTC"},
	{0xAD, "SK Hynix"},
	{0xB5, "Spectek"},
	{0xC2, "Macronix"},
	{0xC8, "ESMT(MIRA-PSC)"},
	{0xEC, "Samsung"},
	{0xEF, "Winbond"},
}

var micronIntelSpectek = []pattern{
	{"176L(B47R)", 1, []byte{0xC3, 0x08, 0x32, 0xEA, 0x30}},
	{"176L(B47R)", 1, []byte{0xD3, 0x89, 0x32, 0xEA, 0x30}},
	{"176L(B47R)", 1, []byte{0xE3, 0x8A, 0x32, 0xEA, 0x30}},
	{"176L(B47T)", 1, []byte{0xC3, 0x08, 0x32, 0xEA, 0x34}},
	{"176L(B47T)", 1, []byte{0xD3, 0x89, 0x32, 0xEA, 0x34}},
	{"176L(B47T)", 1, []byte{0xE3, 0x8A, 0x32, 0xEA, 0x34}},
	{"176L(N48R)", 1, []byte{0xD3, 0x0C, 0x32, 0xEA, 0x30}},
	{"176L(N48R)", 1, []byte{0xE3, 0x8D, 0x32, 0xEA, 0x30}},
	{"176L(N48R)", 1, []byte{0xF3, 0x8E, 0x32, 0xEA, 0x30}},
	{"232L(B57T)", 1, []byte{0xC3, 0x08, 0x32, 0xE6, 0x30}},
	{"232L(B57T)", 1, []byte{0xD3, 0x89, 0x32, 0xE6, 0x30}},
	{"232L(B57T)", 1, []byte{0xE3, 0x8A, 0x32, 0xE6, 0x30}},
	{"232L(B58R)", 1, []byte{0xD3, 0x08, 0x32, 0xE8, 0x30}},
	{"232L(B58R)", 1, []byte{0xE3, 0x89, 0x32, 0xE8, 0x30}},
	{"232L(B58R)", 1, []byte{0xF3, 0x8A, 0x32, 0xE8, 0x30}},
	{"232L(B58R)", 1, []byte{0xD3, 0x08, 0x32, 0xE8, 0x31}},
	{"232L(B58R)", 1, []byte{0xE3, 0x89, 0x32, 0xE8, 0x31}},
	{"232L(B58R)", 1, []byte{0xF3, 0x8A, 0x32, 0xE8, 0x31}},
	{"232L(N58R)", 1, []byte{0xD3, 0x0C, 0x42, 0xEE, 0x30}},
	{"232L(N58R)", 1, []byte{0xE3, 0x8D, 0x42, 0xEE, 0x30}},
	{"232L(N58R)", 1, []byte{0xF3, 0x8E, 0x42, 0xEE, 0x30}},
	{"232L(N58R)", 1, []byte{0xD3, 0x0C, 0x42, 0xEE, 0x31}},
	{"232L(N58R)", 1, []byte{0xE3, 0x8D, 0x42, 0xEE, 0x31}},
	{"232L(N58R)", 1, []byte{0xF3, 0x8E, 0x42, 0xEE, 0x31}},
	{"276L(B68S)", 1, []byte{0xD3, 0x08, 0x32, 0xE8, 0x34}},
	{"276L(B68S)", 1, []byte{0xE3, 0x89, 0x32, 0xE8, 0x34}},
	{"276L(B68S)", 1, []byte{0xF3, 0x8A, 0x32, 0xE8, 0x34}},
	{"276L(B68S)", 1, []byte{0xD3, 0x08, 0x32, 0xE8, 0x35}},
	{"276L(B68S)", 1, []byte{0xE3, 0x89, 0x32, 0xE8, 0x35}},
	{"276L(B68S)", 1, []byte{0xF3, 0x8A, 0x32, 0xE8, 0x35}},
	{"50nm(L52A)", 1, []byte{0xD5, 0x94, 0x3E, 0x74}},
	{"50nm(L52A)", 1, []byte{0xD7, 0xD5, 0x3E, 0x78}},
	{"34nm(M62A)", 1, []byte{0x48, 0x00, 0x26, 0x89}},
	{"34nm(M62A)", 1, []byte{0x68, 0x01, 0xA6, 0x89}},
	{"34nm(L63B)", 1, []byte{0x68, 0x04, 0x46, 0x89}},
	{"34nm(L63B)", 1, []byte{0x88, 0x05, 0xC6, 0x89}},
	{"34nm(L63B)", 1, []byte{0x68, 0x04, 0x46, 0xA9}},
	{"25nm(M73A)", 1, []byte{0x68, 0x00, 0x27, 0xA9}},
	{"25nm(M73A)", 1, []byte{0x88, 0x01, 0xA7, 0xA9}},
	{"25nm(M73A)", 1, []byte{0x68, 0x20, 0x27, 0xA9}},
	{"25nm(L73A)", 1, []byte{0x68, 0x04, 0x4A, 0xA9}},
	{"25nm(L73A)", 1, []byte{0x88, 0x05, 0xCA, 0xA9}},
	{"25nm(L74A)", 1, []byte{0x88, 0x04, 0x4B, 0xA9, 0x00}},
	{"25nm(L74A)", 1, []byte{0xA8, 0x05, 0xCB, 0xA9, 0x00}},
	{"25nm(L74A)", 1, []byte{0x88, 0x24, 0x4B, 0xA9, 0x00}},
	{"20nm(L84A)", 1, []byte{0x88, 0x24, 0x4B, 0xA9, 0x84}},
	{"20nm(L84A)", 1, []byte{0x64, 0x44, 0x4B, 0xA9}},
	{"20nm(L84A)", 1, []byte{0x84, 0xC5, 0x4B, 0xA9}},
	{"20nm(L84C)", 1, []byte{0x64, 0x64, 0x3C, 0xA1}},
	{"20nm(L84C)", 1, []byte{0x64, 0x64, 0x3C, 0xA5}},
	{"20nm(L84C)", 1, []byte{0x84, 0xE5, 0x3C, 0xA5}},
	{"20nm(L85A)", 1, []byte{0x84, 0x64, 0x3C, 0xA5}},
	{"20nm(L85A)", 1, []byte{0xA4, 0xE5, 0x3C, 0xA5}},
	{"20nm(L85C)", 1, []byte{0x84, 0x64, 0x3C, 0xA9}},
	{"20nm(L85C)", 1, []byte{0xA4, 0xE5, 0x3C, 0xA9}},
	{"16nm(L95B)", 1, []byte{0x84, 0x64, 0x54, 0xA9}},
	{"16nm(L95B)", 1, []byte{0xA4, 0xE5, 0x54, 0xA9}},
	{"34nm(B63A)", 1, []byte{0x68, 0x08, 0x56, 0x8A}},
	{"25nm(B74A)", 1, []byte{0x88, 0x08, 0x5F, 0xA9}},
	{"25nm(B74A)", 1, []byte{0x88, 0x08, 0x5F, 0x89}},
	{"25nm(B74A)", 1, []byte{0x88, 0x28, 0x5F, 0xA9}},
	{"25nm(B74A)", 1, []byte{0xA8, 0x09, 0xDF, 0x89}},
	{"25nm(B74A)", 1, []byte{0xA8, 0x09, 0xDF, 0xA9}},
	{"20nm(B85T)", 1, []byte{0x84, 0x78, 0x63, 0xA9}},
	{"20nm(B85T)", 1, []byte{0x84, 0x78, 0x7B, 0xA9}},
	{"20nm(B85T)", 1, []byte{0xA4, 0xF9, 0x63, 0xA9}},
	{"20nm(B85T)", 1, []byte{0xA4, 0xF9, 0x7B, 0xA9}},
	{"16nm(B95A)", 1, []byte{0x84, 0x48, 0x63, 0xA9}},
	{"32L(L04A)", 1, []byte{0x64, 0x44, 0x32, 0xA5}},
	{"32L(L05B)", 1, []byte{0x84, 0x44, 0x34, 0xAA}},
	{"32L(B05A)", 1, []byte{0x84, 0x58, 0x32, 0xA1}},
	{"32L(L05A)", 1, []byte{0xA4, 0x64, 0x34, 0xAA}},
	{"32L(L06A)", 1, []byte{0xA4, 0xE4, 0x34, 0x8A}},
	{"32L(L06B)", 1, []byte{0xA4, 0x64, 0x32, 0xAA}},
	{"32L(L06B)", 1, []byte{0xC4, 0xE5, 0x32, 0xAA}},
	{"32L(B0KB)", 1, []byte{0xB4, 0x78, 0x32, 0xAA}},
	{"32L(B0KB)", 1, []byte{0xCC, 0xF9, 0x32, 0xAA}},
	{"64L(B16A)", 1, []byte{0xA4, 0x08, 0x32, 0xA1}},
	{"64L(B16A)", 1, []byte{0xA4, 0x88, 0x32, 0xA1}},
	{"64L(B16A)", 1, []byte{0xC4, 0x89, 0x32, 0xA1}},
	{"64L(B17A)", 1, []byte{0xC4, 0x08, 0x32, 0xA6}},
	{"64L(B17A)", 1, []byte{0xD4, 0x89, 0x32, 0xA6}},
	{"64L(B17A)", 1, []byte{0xE4, 0x8A, 0x32, 0xA6}},
	{"64L(N18A)", 1, []byte{0xD4, 0x0C, 0x32, 0xAA}},
	{"96L(B27A)", 1, []byte{0xC4, 0x18, 0x32, 0xA2}},
	{"96L(B27A)", 1, []byte{0xD4, 0x99, 0x32, 0xA2}},
	{"96L(B27A)", 1, []byte{0xE4, 0x9A, 0x32, 0xA2}},
	{"96L(B27B)", 1, []byte{0xC3, 0x08, 0x32, 0xE6, 0x00}},
	{"96L(B27B)", 1, []byte{0xD3, 0x89, 0x32, 0xE6}},
	{"96L(B27B)", 1, []byte{0xE3, 0x8A, 0x32, 0xE6}},
	{"96L(N28A)", 1, []byte{0xD3, 0x1C, 0x32, 0xC6}},
	{"96L(N28A)", 1, []byte{0xD3, 0x9C, 0x32, 0xC6}},
	{"96L(N28A)", 1, []byte{0xE3, 0x9D, 0x32, 0xC6}},
	{"96L(N28A)", 1, []byte{0xF3, 0x9E, 0x32, 0xC6}},
	{"96L(M26A)", 1, []byte{0xA3, 0x60, 0x32, 0xC6}},
	{"128L(B36R)", 1, []byte{0xA3, 0x78, 0x32, 0xE5}},
	{"128L(B37R)", 1, []byte{0xC3, 0x78, 0x32, 0xEA}},
	{"144L(N38A)", 0, []byte{0x89, 0xD3, 0xAC, 0x32, 0xC6}},
	{"144L(N38A)", 0, []byte{0x89, 0xE3, 0xAD, 0x32, 0xC6}},
	{"144L(N38B)", 0, []byte{0x89, 0xD3, 0xAC, 0x32, 0xC2}},
	{"144L(N38B)", 0, []byte{0x89, 0xE3, 0xAD, 0x32, 0xC2}},
	{"192L(Q5171A)", 0, []byte{0x89, 0x09, 0x28, 0x32, 0xC2}},
	{"192L(Q5171A)", 0, []byte{0x89, 0x09, 0x29, 0x32, 0xC2}},
	{"192L(Q5171A)", 0, []byte{0x89, 0x09, 0x2A, 0x32, 0xC2}},
	{"192L(Q5171A)", 0, []byte{0x89, 0x09, 0x2B, 0x32, 0xC2}},
	{"192L(N4PA)", 0, []byte{0x89, 0x05, 0x04, 0x32, 0xC2}},
	{"192L(N4PA)", 0, []byte{0x89, 0x05, 0x05, 0x32, 0xC2}},
	{"192L(N4PA)", 0, []byte{0x89, 0x05, 0x06, 0x32, 0xC2}},
	{"192L(N4PA)", 0, []byte{0x89, 0x05, 0x07, 0x32, 0xC2}},
}

var ymtcPatterns = []pattern{
	{"(x1-9050)", 1, []byte{0xC3, 0x48, 0x25, 0x10}},
	{"(x2-6070)", 1, []byte{0xD5, 0x58, 0x8D, 0x20}},
	{"(x2-9060)", 1, []byte{0xC4, 0x28, 0x49, 0x20}},
	{"(x2-9060)", 1, []byte{0xC5, 0x29, 0x49, 0x20}},
	{"-128L(x3-9060)", 1, []byte{0xC4, 0x28, 0x49, 0x30}},
	{"-128L(x3-9060)", 1, []byte{0xC5, 0x29, 0x49, 0x30}},
	{"-232L(x3-9070)", 1, []byte{0xC5, 0x58, 0x71, 0x30}},
	{"-232L(x3-9070)", 1, []byte{0xC6, 0x59, 0x71, 0x30}},
	{"-232L(x3-6070)", 1, []byte{0xC5, 0x5C, 0x55, 0x30}},
}

// Keyed by id[5] & 0x27.
var toshibaSandiskTech = []entry{
	{0x00, "A19nm"},
	{0x01, "15nm"},
	{0x02, "70nm"},
	{0x03, "56nm"},
	{0x04, "43nm"},
	{0x05, "32nm"},
	{0x06, "24nm"},
	{0x07, "19nm"},
	{0x20, "48L BiCS2"},
	{0x21, "64L BiCS3"},
	{0x22, "96L BiCS4"},
	{0x23, "112L BiCS5"},
	{0x24, "162L BiCS6"},
	{0x25, "218L BiCS8"},
}

// Keyed by raw id[5].
var hynixTech = []entry{
	{0x25, "41nm"},
	{0x26, "32nm"},
	{0x27, "26nm"},
	{0x28, "26nm"},
	{0x29, "20nm"},
	{0x2A, "20nm"},
	{0x36, "16nm"},
	{0x37, "16nm"},
	{0x3A, "16nm"},
	{0x3B, "16nm"},
	{0x3C, "16nm"},
	{0x3D, "16nm"},
	{0x40, "16nm"},
	{0x44, "16nm"},
	{0x48, "14nm"},
	{0x49, "3dv1"},
	{0x4A, "14nm"},
	{0x4B, "3dv2-36L"},
	{0x50, "3dv3-48L"},
	{0x55, "3dv4-72L"},
	{0x5A, "3dv5-96L"},
	{0x5B, "3dv5-96L"},
	{0x60, "3dv6-128L"},
	{0x61, "3dv6-128L"},
	{0x65, "3dv7-176L"},
	{0x66, "3dv7-176L"},
	{0x76, "3dv8-238L"},
	// SMI only
	{0x56, "16nm"},
	{0x57, "16nm"},
	{0x58, "14nm"},
	{0x64, "16nm"},
	{0x67, "16nm"},
	{0x68, "16nm"},
	{0x69, "3dv1"},
	{0x6A, "16nm"},
	{0x6B, "3dv2-36L"},
	{0x6C, "3dv3-48L"},
	{0x6D, "3dv4-72L"},
	{0x6E, "3dv5-96L"},
	{0x6F, "3dv5-96L"},
	{0x70, "3dv6-128L"},
	{0x71, "3dv6-128L"},
	{0x72, "3dv7-176L"},
	{0x73, "3dv7-176L"},
	{0x7A, "3dv8-238L"},
	{0x7B, "14nm"},
	{0x7C, "26nm"},
	{0x7D, "20nm"},
}

// Keyed by id[5] & 0x7F.
var samsungTech = []entry{
	{0x40, "51nm"},
	{0x41, "42nm"},
	{0x42, "32nm"},
	{0x43, "27nm"},
	{0x44, "21nm"},
	{0x45, "19nm"},
	{0x46, "16nm"},
	{0x47, "3dv1-24L"},
	{0x48, "3dv2-32L"},
	{0x49, "3dv3-48L"},
	{0x4A, "14nm"},
	{0x4B, "3dv4-64L"},
	{0x4C, "3dv5-92L"},
	{0x4D, "3dv6-136L"},
	{0x4E, "3dv7-176L"},
	{0x4F, "3dv8-236L"},
}

// Keyed by raw id[5]; checked before samsungTech.
var samsungTechExtra = []entry{
	{0x86, "3dv6e-136L"},
	{0x87, "3dv7-176L"},
}

func lookup(table []entry, key byte) (string, bool) {
	for _, e := range table {
		if e.key == key {
			return e.name, true
		}
	}
	return "", false
}

func matchPattern(table []pattern, id []byte) (string, bool) {
	for _, p := range table {
		end := p.off + len(p.id)
		if end <= len(id) && bytes.Equal(id[p.off:end], p.id) {
			return p.desc, true
		}
	}
	return "", false
}

// ManufacturerName returns the vendor name of a JEDEC manufacturer byte.
func ManufacturerName(id byte) string {
	if name, ok := lookup(manufacturers, id); ok {
		return name
	}
	return Unknown
}

func cellType(id []byte) string {
	bits := (id[2] >> 2) & 3
	switch {
	case isMicronFamily(id[0]) && (id[1] == 0x05 || id[1] == 0x09):
		return [...]string{"", "TLC", "QLC", "PLC"}[bits]
	case len(id) >= 5 && bytes.Equal(id[:5], []byte{0x9B, 0xD5, 0x58, 0x8D, 0x20}):
		return "QLC"
	}
	return [...]string{"SLC", "MLC", "TLC", "QLC"}[bits]
}

func pageSize(id []byte) string {
	switch id[0] {
	case 0x98, 0x45, 0xEC, 0xAD:
		return [...]string{"2k", "4k", "8k", "16k"}[id[3]&3]
	case 0x9B:
		return [...]string{"8k", "16k"}[id[3]&1]
	}
	return ""
}

func isMicronFamily(m byte) bool { return m == 0x2C || m == 0x89 || m == 0xB5 }

func ymtcTech(id []byte) (string, bool) {
	desc, _ := matchPattern(ymtcPatterns, id)
	var gen string
	if len(id) > 4 {
		switch (id[4] >> 4) & 7 {
		case 1:
			gen = "3dv2-64L"
		case 2:
			gen = "3dv3-128L"
		case 3:
			gen = "3dv4"
		case 4:
			gen = "3dv5"
		}
	}
	s := gen + desc
	return s, s != ""
}

func tech(id []byte) (string, bool) {
	switch m := id[0]; {
	case isMicronFamily(m):
		return matchPattern(micronIntelSpectek, id)
	case m == 0x9B:
		return ymtcTech(id)
	case m == 0x98 || m == 0x45:
		return lookup(toshibaSandiskTech, id[5]&0x27)
	case m == 0xAD:
		return lookup(hynixTech, id[5])
	case m == 0xEC:
		if s, ok := lookup(samsungTechExtra, id[5]); ok {
			return s, true
		}
		return lookup(samsungTech, id[5]&0x7F)
	}
	return "", false
}

// Describe renders a flash id as "<manufacturer> [tech] [cell] [page]",
// e.g. "Intel 144L(N38A) QLC". Ids shorter than 6 bytes are Unknown.
func Describe(id []byte) string {
	if len(id) < 6 {
		return Unknown
	}
	parts := []string{ManufacturerName(id[0])}
	if t, ok := tech(id); ok {
		parts = append(parts, t)
	}
	if c := cellType(id); c != "" {
		parts = append(parts, c)
	}
	if p := pageSize(id); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// FormatHex renders id as comma separated lower-case 0x bytes.
func FormatHex(id []byte) string {
	hex := make([]string, len(id))
	for i, b := range id {
		hex[i] = fmt.Sprintf("0x%02x", b)
	}
	return strings.Join(hex, ",")
}
