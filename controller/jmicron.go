package controller

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

const (
	jmCmdWrite    = 0x88
	jmCmdRead     = 0x86
	jmWriteFeat   = 0x12
	jmWriteLBALow = 0xFF
	jmReadLBALow  = 0x12
	jmFlashCount  = 0x34

	jmSubFlashID = 0x36

	jmFirmwareLen = 4096
	jmTableLen    = 32
	jmIDLen       = 7
	jmTableEnd    = 0xFF
)

// jmModel describes how a JMicron/Maxio part lays out its firmware id blob.
// Parts without a table cannot be read per channel.
type jmModel struct {
	name     string
	table    int
	ceShift  uint
	nandOff  int
	nandMax  int
	hasTable bool
}

var (
	jmMAS1102 = jmModel{name: "MAS1102", table: 0x474, ceShift: 3, nandOff: 0x894, nandMax: 80, hasTable: true}
	jmMAS0902 = jmModel{name: "MAS0902", table: 0x450, ceShift: 4, nandOff: 0x568, nandMax: 32, hasTable: true}
)

func jmLegacy(name string) jmModel { return jmModel{name: name, nandOff: 0x4A8, nandMax: 16} }

// Name tags in the firmware id blob, checked in order.
var jmPatterns = []struct {
	tag   string
	model jmModel
}{
	{",MA1102", jmMAS1102},
	{",DM1102", jmMAS1102},
	{",MK8215", jmMAS0902},
	{",DM9343", jmMAS0902},
	{",805", jmLegacy("MK8115")},
	{",670", jmLegacy("JMF670")},
	{",667", jmLegacy("JMF667")},
	{",662", jmLegacy("JMF662")},
	{",661", jmLegacy("JMF661")},
	{",61X", jmLegacy("JMF612")},
	{",608", jmLegacy("JMF608")},
	{",607", jmLegacy("JMF607")},
	{",606", jmLegacy("JMF606")},
	{",605", jmLegacy("JMF605")},
}

// SET FEATURES unlocks, generic first.
var jmUnlock = []ata.Taskfile{
	{Command: 0xEF, Features: 0xDA, Count: 0x41, Device: ata.DeviceLBA},
	{Command: 0xEF, Features: 0xDC, Count: 0x4A, Device: ata.DeviceLBA},
}

// Firmware id sub-command encodings, tried in order.
var jmFirmwareVariants = []struct{ sub, param byte }{
	{0x86, 0x03},
	{0x04, 0xFF},
}

func jmPayload(sub byte) []byte {
	p := make([]byte, 512)
	p[0], p[1], p[2] = 0xFF, 0xE5, sub
	return p
}

// ReadJMicronFirmwareID unlocks the vendor command set and fetches the 4 KiB
// firmware id blob. Unlock failures are ignored; a blob of zeros counts as
// unsupported.
func ReadJMicronFirmwareID(dev ATA) ([]byte, error) {
	for _, tf := range jmUnlock {
		if err := dev.NoData(tf); err != nil {
			log.WithField("features", fmt.Sprintf("0x%02x", tf.Features)).Debugf("jmicron unlock: %v", err)
		}
	}

	var errs []error
	for _, v := range jmFirmwareVariants {
		buf, err := jmReadFirmwareID(dev, v.sub, v.param)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if anyNonZero(buf) {
			return buf, nil
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("jmicron firmware id: %w", errors.Join(errs...))
	}
	return nil, fmt.Errorf("jmicron firmware id response is all zeros: %w", flash.ErrEmpty)
}

func jmReadFirmwareID(dev ATA, sub, param byte) ([]byte, error) {
	p := jmPayload(sub)
	p[3] = param
	if err := dev.Write(ata.Taskfile{Command: jmCmdWrite, Features: jmWriteFeat, Count: 1, LBALow: jmWriteLBALow, Device: ata.DeviceLBA}, p); err != nil {
		return nil, fmt.Errorf("write (subcmd 0x%02x): %w", sub, err)
	}
	buf := make([]byte, jmFirmwareLen)
	if err := dev.Read(ata.Taskfile{Command: jmCmdRead, Features: sub, Count: 8, LBALow: jmReadLBALow, Device: ata.DeviceLBA}, buf); err != nil {
		return nil, fmt.Errorf("read (subcmd 0x%02x): %w", sub, err)
	}
	return buf, nil
}

func jmDetect(fw []byte) (jmModel, bool) {
	for _, p := range jmPatterns {
		if bytes.Contains(fw, []byte(p.tag)) {
			return p.model, true
		}
	}
	return jmModel{}, false
}

// ReadJMicron identifies the part from the firmware id blob and reads one
// flash id per entry of its chip-enable table. Terminator entries are
// skipped; every other entry consumes a bank number even if its read fails.
func ReadJMicron(dev ATA, fw []byte) (*flash.Result, error) {
	m, ok := jmDetect(fw)
	if !ok {
		return nil, fmt.Errorf("no JMicron/Maxio part tag in firmware id: %w", flash.ErrProtocolMismatch)
	}
	if !m.hasTable {
		return nil, fmt.Errorf("%s: per-channel flash id reading requires MAS1102 or MAS0902: %w", m.name, flash.ErrProtocolMismatch)
	}

	res := &flash.Result{Controller: jmName(m, fw)}
	var num uint32
	for i := 0; i < jmTableLen && m.table+i < len(fw); i++ {
		entry := fw[m.table+i]
		if entry == jmTableEnd {
			continue
		}
		ch := entry >> m.ceShift
		id, err := jmReadChannel(dev, ch, entry)
		if err != nil {
			log.WithFields(log.Fields{"channel": ch, "entry": entry}).Debugf("jmicron flash id: %v", err)
		} else if !flash.IsBankEmpty(id) {
			res.Banks = append(res.Banks, flash.NewBank(num, id))
		}
		num++
	}
	return res, nil
}

func jmReadChannel(dev ATA, ch, entry byte) ([]byte, error) {
	p := jmPayload(jmSubFlashID)
	p[7] = ch
	p[0x1C] = entry
	if err := dev.Write(ata.Taskfile{Command: jmCmdWrite, Features: jmWriteFeat, Count: jmFlashCount, LBALow: jmWriteLBALow, Device: ata.DeviceLBA}, p); err != nil {
		return nil, fmt.Errorf("write (ch %d): %w", ch, err)
	}
	buf := make([]byte, 512)
	if err := dev.Read(ata.Taskfile{Command: jmCmdRead, Features: jmSubFlashID, Count: jmFlashCount, LBALow: jmReadLBALow, Device: ata.DeviceLBA}, buf); err != nil {
		return nil, fmt.Errorf("read (ch %d): %w", ch, err)
	}
	id := make([]byte, flash.IDLen)
	copy(id, buf[:jmIDLen])
	return id, nil
}

// jmName appends the NAND part string stored in the blob, if any.
func jmName(m jmModel, fw []byte) string {
	if m.nandOff >= len(fw) {
		return m.name
	}
	nand := printableUntil(fw[m.nandOff:], m.nandMax, func(c byte) bool { return c >= 0x20 && c <= 0x7A })
	if s := strings.TrimSpace(string(nand)); s != "" {
		return fmt.Sprintf("%s (%s)", m.name, s)
	}
	return m.name
}
