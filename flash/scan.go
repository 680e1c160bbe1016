package flash

// Accept decides whether a candidate slot becomes a Bank.
type Accept func(slot []byte) bool

// NotEmpty accepts every non-sentinel slot.
func NotEmpty(slot []byte) bool { return !IsBankEmpty(slot) }

// KnownNotEmpty accepts non-sentinel slots whose first byte is a JEDEC
// manufacturer code.
func KnownNotEmpty(slot []byte) bool {
	return !IsBankEmpty(slot) && KnownManufacturer(slot[0])
}

// ScanSlots walks count slots of size bytes starting at off and keeps the
// slots accept allows. Bank numbers are slot indices, so they may have gaps.
// Slots running past the end of buf are not read.
func ScanSlots(buf []byte, off, size, count int, accept Accept) []Bank {
	if accept == nil {
		accept = NotEmpty
	}
	var banks []Bank
	for i := 0; i < count; i++ {
		start := off + i*size
		if start+size > len(buf) {
			break
		}
		slot := buf[start : start+size]
		if !accept(slot) {
			continue
		}
		banks = append(banks, NewBank(uint32(i), slot))
	}
	return banks
}

// ScanUntilEmpty walks up to count slots of size bytes from the start of buf
// and stops at the first sentinel slot.
func ScanUntilEmpty(buf []byte, size, count int) []Bank {
	var banks []Bank
	for i := 0; i < count; i++ {
		start := i * size
		if start+size > len(buf) {
			break
		}
		slot := buf[start : start+size]
		if IsBankEmpty(slot) {
			break
		}
		banks = append(banks, NewBank(uint32(i), slot))
	}
	return banks
}
