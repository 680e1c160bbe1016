// Package flash holds the values shared by every flash-id extractor: the bank
// and result types, the empty-slot predicate, the JEDEC manufacturer allow-list
// and the error taxonomy.
package flash

// IDLen is the size of a raw NAND flash identifier.
const IDLen = 8

// Bank is one populated chip-enable slot.
// Num is the slot ordinal as reported by the extractor; it need not be contiguous.
type Bank struct {
	Num uint32
	ID  [IDLen]byte
}

// Result is the outcome of one successful extraction.
// Banks are kept in extraction order.
type Result struct {
	Controller string
	Banks      []Bank
}

// IsBankEmpty reports whether b is a sentinel slot: every byte 0x00 or every
// byte 0xFF. An empty slice is empty.
func IsBankEmpty(b []byte) bool {
	return allEqual(b, 0x00) || allEqual(b, 0xFF)
}

func allEqual(b []byte, v byte) bool {
	for _, x := range b {
		if x != v {
			return false
		}
	}
	return true
}

// jedecIDs is the manufacturer byte allow-list used to reject noise slots.
var jedecIDs = [...]byte{
	0x01, // Spansion
	0x04, // Fujitsu
	0x07, // Renesas
	0x20, // STMicro
	0x2C, // Micron
	0x45, // SanDisk
	0x4A, // SMIC
	0x51, // Qimonda
	0x89, // Intel
	0x92, // ESMT (PowerChip)
	0x98, // Toshiba/Kioxia
	0x9B, // YMTC
	0xAD, // SK Hynix
	0xB5, // SpecTek
	0xC2, // Macronix
	0xC8, // ESMT (MIRA-PSC)
	0xEC, // Samsung
	0xEF, // Winbond
}

// KnownManufacturer reports whether id is a JEDEC NAND manufacturer code.
func KnownManufacturer(id byte) bool {
	for _, m := range jedecIDs {
		if m == id {
			return true
		}
	}
	return false
}

// NewBank copies the first IDLen bytes of b (zero padded) into a Bank.
func NewBank(num uint32, b []byte) Bank {
	bank := Bank{Num: num}
	copy(bank.ID[:], b)
	return bank
}
