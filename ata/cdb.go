// Package ata issues raw ATA commands through the SCSI ATA PASS-THROUGH(16)
// command over the Linux SG_IO interface.
package ata

// PassThrough16 is the SCSI opcode of ATA PASS-THROUGH(16).
const PassThrough16 = 0x85

// Protocol is the ATA protocol field of the pass-through CDB.
type Protocol byte

// ATA protocols used by the extractors.
const (
	ProtoNonData    Protocol = 3
	ProtoPIODataIn  Protocol = 4
	ProtoPIODataOut Protocol = 5
	ProtoDMA        Protocol = 6
)

// Op selects CDB byte 2: CK_COND (bit 5), T_DIR (bit 3), BYTE_BLOCK (bit 2),
// T_LENGTH (bits 1:0).
type Op byte

// CDB byte 2 encodings.
const (
	OpRead    Op = 0x2E // CK_COND, from device, blocks, length in sector count
	OpWrite   Op = 0x26 // CK_COND, to device, blocks, length in sector count
	OpNonData Op = 0x20 // CK_COND only
)

// Taskfile holds the "current" register values of one ATA command.
type Taskfile struct {
	Command  byte
	Features byte
	Count    byte
	LBALow   byte
	LBAMid   byte
	LBAHigh  byte
	Device   byte
}

// HOB holds the "previous" register values written ahead of the current
// ones for 48-bit commands.
type HOB struct {
	Features byte
	Count    byte
	LBALow   byte
	LBAMid   byte
	LBAHigh  byte
}

// BuildCDB encodes a 28-bit ATA PASS-THROUGH(16) CDB.
func BuildCDB(proto Protocol, op Op, tf Taskfile) [16]byte {
	return [16]byte{
		PassThrough16,
		byte(proto) << 1,
		byte(op),
		0, tf.Features,
		0, tf.Count,
		0, tf.LBALow,
		0, tf.LBAMid,
		0, tf.LBAHigh,
		tf.Device,
		tf.Command,
		0,
	}
}

// BuildCDBExt encodes a 48-bit CDB: the EXTEND bit is set and every register
// pair is stored previous byte first.
func BuildCDBExt(proto Protocol, op Op, tf Taskfile, hob HOB) [16]byte {
	return [16]byte{
		PassThrough16,
		byte(proto)<<1 | 1,
		byte(op),
		hob.Features, tf.Features,
		hob.Count, tf.Count,
		hob.LBALow, tf.LBALow,
		hob.LBAMid, tf.LBAMid,
		hob.LBAHigh, tf.LBAHigh,
		tf.Device,
		tf.Command,
		0,
	}
}
