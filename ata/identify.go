package ata

import "strings"

// IDENTIFY DEVICE parameters.
const (
	CmdIdentify = 0xEC
	DeviceLBA   = 0xE0
	IdentifyLen = 512
)

// Identity holds the text fields of IDENTIFY DEVICE data and the raw
// sector, which some controllers use to carry vendor data.
type Identity struct {
	Model    string
	Serial   string
	Firmware string
	Raw      []byte
}

// ParseIdentify decodes a 512-byte IDENTIFY DEVICE sector. Short input
// yields empty fields.
func ParseIdentify(data []byte) *Identity {
	id := &Identity{Raw: data}
	if len(data) < 94 {
		return id
	}
	id.Serial = DecodeString(data[20:40])
	id.Firmware = DecodeString(data[46:54])
	id.Model = DecodeString(data[54:94])
	return id
}

// DecodeString converts an ATA text field. Each 16-bit word stores its first
// character in the high byte, so every byte pair is swapped; bytes that are
// neither graphic ASCII nor space become spaces and the result is trimmed.
// A trailing odd byte is dropped.
func DecodeString(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i+1 < len(raw); i += 2 {
		out = append(out, raw[i+1], raw[i])
	}
	for i, b := range out {
		if b < 0x20 || b > 0x7E {
			out[i] = ' '
		}
	}
	return strings.TrimSpace(string(out))
}
