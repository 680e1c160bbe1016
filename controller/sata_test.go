package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

type attemptLog struct {
	started []string
}

func (a *attemptLog) AttemptStarted(name string) { a.started = append(a.started, name) }

func (a *attemptLog) AttemptFinished(string, *flash.Result, error) {}

func failAll(string, ata.Taskfile, ata.HOB, []byte) error { return errFake }

func attemptNames(attempts []flash.Attempt) []string {
	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Name
	}
	return names
}

func TestSATAPlan(t *testing.T) {
	tests := []struct {
		name     string
		firmware string
		forced   Family
		want     []string
	}{
		{name: "auto", firmware: "SBFM61.3", want: []string{"yeestor", "smi-sata", "sandforce", "jm", "rtl-sata", "identify"}},
		{name: "smi hint", firmware: "SM2259AB-Q0609A", want: []string{"smi-sata"}},
		{name: "realtek hint", firmware: "REALTEK_RL6643", want: []string{"rtl-sata"}},
		{name: "forced beats hint", firmware: "SM2259AB-Q0609A", forced: SandForce, want: []string{"sandforce"}},
	}
	for i, tt := range tests {
		attempts, err := SATAPlan(&fakeATA{}, &ata.Identity{Firmware: tt.firmware}, tt.forced)
		require.NoError(t, err, "[%02d] test %q", i, tt.name)
		assert.Equal(t, tt.want, attemptNames(attempts), "[%02d] test %q", i, tt.name)
	}

	_, err := SATAPlan(&fakeATA{}, &ata.Identity{}, Phison)
	assert.Error(t, err)
}

func TestSATAHint(t *testing.T) {
	f, part, ok := SATAHint("SM2259AC-Q1")
	assert.True(t, ok)
	assert.Equal(t, SMISATA, f)
	assert.Equal(t, "SM2259XT2", part)

	f, part, ok = SATAHint("REALTEK_RL6531")
	assert.True(t, ok)
	assert.Equal(t, RealtekSATA, f)
	assert.Equal(t, "RTS5733", part)

	_, _, ok = SATAHint("W0306A0")
	assert.False(t, ok)
}

func TestReadSATAFallsBackToIdentify(t *testing.T) {
	raw := make([]byte, 512)
	copy(raw[0x127:], toshibaID)
	obs := &attemptLog{}
	res, family, err := ReadSATA(&fakeATA{respond: failAll}, &ata.Identity{Raw: raw}, Unknown, obs)
	require.NoError(t, err)
	assert.Equal(t, "SATA", family)
	assert.Equal(t, "SATA (from ATA IDENTIFY)", res.Controller)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, toshibaID)}, res.Banks)
	assert.Equal(t, []string{"yeestor", "smi-sata", "sandforce", "jm", "rtl-sata", "identify"}, obs.started)
}

func TestReadSATANothingWorks(t *testing.T) {
	_, _, err := ReadSATA(&fakeATA{respond: failAll}, &ata.Identity{Raw: make([]byte, 512)}, Unknown, nil)
	assert.ErrorIs(t, err, errFake)
	assert.ErrorIs(t, err, flash.ErrEmpty)
}

func TestReadSATAStopsAtYeestor(t *testing.T) {
	dev := &fakeATA{respond: func(kind string, _ ata.Taskfile, _ ata.HOB, buf []byte) error {
		if kind == "dma" {
			copy(buf, micronID)
			return nil
		}
		return errFake
	}}
	obs := &attemptLog{}
	res, family, err := ReadSATA(dev, &ata.Identity{}, Unknown, obs)
	require.NoError(t, err)
	assert.Equal(t, "Yeestor/SiliconGo", family)
	assert.Equal(t, "Yeestor/SiliconGo (DMA 0x5500)", res.Controller)
	assert.Equal(t, []string{"yeestor"}, obs.started)
	require.Len(t, dev.calls, 1)
	assert.Equal(t, ata.Taskfile{Command: 0xC8, Count: 1, LBAMid: 0x55, Device: 0x40}, dev.calls[0].tf)
}

func TestReadSATAStopsAtSMI(t *testing.T) {
	dev := &fakeATA{respond: func(kind string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		if kind == "read" && tf.Command == 0xB0 {
			copy(buf, hynixID)
			return nil
		}
		return errFake
	}}
	res, family, err := ReadSATA(dev, &ata.Identity{}, Unknown, nil)
	require.NoError(t, err)
	assert.Equal(t, "Silicon Motion", family)
	assert.Equal(t, "SM2259/XT (SMART FID)", res.Controller)
	for _, c := range dev.calls {
		assert.NotEqual(t, "write", c.kind, "sandforce must not run")
	}
}

func TestReadSATAStopsAtEmptyJMicron(t *testing.T) {
	// JMicron answers with a table of terminators; Realtek SATA would have data.
	dev := &fakeATA{respond: func(kind string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		switch {
		case kind == "nodata":
			return nil
		case kind == "write" && tf.Command == 0x88:
			return nil
		case kind == "read" && tf.Command == 0x86:
			for i := range buf {
				buf[i] = 0xFF
			}
			copy(buf[0x100:], ",MA1102")
			return nil
		case kind == "nodataext":
			return nil
		case kind == "readext":
			copy(buf, micronID)
			return nil
		}
		return errFake
	}}
	obs := &attemptLog{}
	res, family, err := ReadSATA(dev, &ata.Identity{}, Unknown, obs)
	require.NoError(t, err)
	assert.Equal(t, "JMicron/Maxio", family)
	assert.Equal(t, "MAS1102", res.Controller)
	assert.Empty(t, res.Banks)
	assert.Equal(t, []string{"yeestor", "smi-sata", "sandforce", "jm"}, obs.started)
	for _, c := range dev.calls {
		assert.NotEqual(t, byte(0xFC), c.tf.Command, "realtek sata setup must not be sent")
	}
}

func TestReadYeestor(t *testing.T) {
	dev := &fakeATA{respond: func(_ string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		switch {
		case tf.LBAMid == 0x55 && tf.LBALow == 0:
			buf[0] = 0x33
		case tf.LBALow == 0x55:
			return errFake
		case tf.LBAMid == 0xAA:
			copy(buf, toshibaID)
			copy(buf[8:], hynixID)
		}
		return nil
	}}
	res, err := ReadYeestor(dev)
	require.NoError(t, err)
	assert.Equal(t, "Yeestor/SiliconGo (DMA 0xAA00)", res.Controller)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, toshibaID), flash.NewBank(1, hynixID)}, res.Banks)
	assert.Len(t, dev.calls, 3)
}

func TestReadSMISATAMagicLBA(t *testing.T) {
	dev := &fakeATA{respond: func(_ string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		switch {
		case tf.Command == 0xB0:
			return errFake
		case tf.LBAMid == 0x55:
			copy(buf, micronID)
			copy(buf[8:], micronID)
			copy(buf[24:], micronID)
		}
		return nil
	}}
	res, err := ReadSMISATA(dev)
	require.NoError(t, err)
	assert.Equal(t, "SM2259/XT (R5)", res.Controller)
	assert.Len(t, res.Banks, 2, "scan stops at the first empty slot")

	require.Len(t, dev.calls, 3)
	assert.Equal(t, ata.Taskfile{Command: 0xB0, Count: 1, LBAMid: 0x4F, LBAHigh: 0xC2, Device: 0x40}, dev.calls[0].tf)
	assert.Equal(t, ata.Taskfile{Command: 0x20, Count: 1, LBALow: 0xAA, Device: 0xE0}, dev.calls[1].tf)
	assert.Equal(t, ata.Taskfile{Command: 0x20, Count: 1, LBALow: 0xAA, LBAMid: 0x55, Device: 0xE0}, dev.calls[2].tf)
}

func TestReadSMISATAMagicLBAAfterR1Failure(t *testing.T) {
	dev := &fakeATA{respond: func(_ string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		if tf.LBAMid == 0x55 {
			copy(buf, toshibaID)
			return nil
		}
		return errFake
	}}
	res, err := ReadSMISATA(dev)
	require.NoError(t, err)
	assert.Equal(t, "SM2259/XT (R5)", res.Controller)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, toshibaID)}, res.Banks)
	assert.Len(t, dev.calls, 3)
}

func TestYeestorManufacturer(t *testing.T) {
	tests := []struct {
		id   byte
		want bool
	}{
		{0x2C, true},
		{0x01, true},
		{0x9B, true},
		{0x51, false},
		{0x00, false},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.want, yeestorManufacturer(tt.id), "[%02d] test 0x%02x", i, tt.id)
	}
}

func TestReadSandForce(t *testing.T) {
	tests := []struct {
		name    string
		fill    byte
		ids     [][]byte
		wantErr error
		banks   int
	}{
		{name: "all ff", fill: 0xFF, wantErr: flash.ErrEmpty},
		{name: "no leading id", fill: 0x00, ids: [][]byte{nil, micronID}, wantErr: flash.ErrEmpty},
		{name: "two ids", fill: 0x00, ids: [][]byte{micronID, toshibaID}, banks: 2},
	}
	for i, tt := range tests {
		dev := &fakeATA{respond: func(kind string, _ ata.Taskfile, _ ata.HOB, buf []byte) error {
			if kind != "read" {
				return nil
			}
			for j := range buf {
				buf[j] = tt.fill
			}
			for j, id := range tt.ids {
				copy(buf[j*8:], id)
			}
			return nil
		}}
		res, err := ReadSandForce(dev)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "[%02d] test %q", i, tt.name)
			continue
		}
		require.NoError(t, err, "[%02d] test %q", i, tt.name)
		assert.Equal(t, "SandForce", res.Controller)
		assert.Len(t, res.Banks, tt.banks, "[%02d] test %q", i, tt.name)

		w := dev.calls[0]
		assert.Equal(t, ata.Taskfile{Command: 0xB0, Features: 0xD6, Count: 1, LBALow: 0xE0, LBAMid: 0x4F, LBAHigh: 0xC2}, w.tf)
		assert.Equal(t, []byte{0x01, 0x34, 0xC0}, w.data[:3])
		assert.Equal(t, ata.Taskfile{Command: 0xB0, Features: 0xD5, Count: 1, LBALow: 0xE1, LBAMid: 0x4F, LBAHigh: 0xC2}, dev.calls[1].tf)
	}
}

func TestReadRealtekSATA(t *testing.T) {
	dev := &fakeATA{respond: func(kind string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		if kind == "readext" && tf.Features == 0x41 {
			copy(buf, hynixID)
		}
		return nil
	}}
	res, err := ReadRealtekSATA(dev)
	require.NoError(t, err)
	assert.Equal(t, "Realtek SATA (ext)", res.Controller)

	require.Len(t, dev.calls, 3)
	assert.Equal(t, ata.HOB{Count: 0xFF}, dev.calls[0].hob)
	assert.Equal(t, ata.Taskfile{Command: 0xFC, Features: 0x50, Count: 0xFF, Device: 0xE0}, dev.calls[0].tf)
	assert.Equal(t, ata.HOB{LBALow: 0xAF}, dev.calls[1].hob)
	assert.Equal(t, ata.Taskfile{Command: 0xFA, Features: 0x01, Count: 1, LBALow: 0x20, LBAMid: 0x04, LBAHigh: 0xF0, Device: 0xE0}, dev.calls[1].tf)
}

func TestReadRealtekSATASetupFailure(t *testing.T) {
	dev := &fakeATA{respond: failAll}
	_, err := ReadRealtekSATA(dev)
	assert.ErrorIs(t, err, errFake)
	assert.Len(t, dev.calls, 1)
}

func TestFlashIDFromIdentify(t *testing.T) {
	raw := make([]byte, 512)
	_, ok := FlashIDFromIdentify(raw)
	assert.False(t, ok)

	copy(raw[0x127:], []byte{0x42, 1, 2, 3, 4, 5, 6, 7})
	_, ok = FlashIDFromIdentify(raw)
	assert.False(t, ok, "unknown manufacturer")

	copy(raw[0x127:], micronID)
	res, ok := FlashIDFromIdentify(raw)
	require.True(t, ok)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, micronID)}, res.Banks)

	_, ok = FlashIDFromIdentify(raw[:0x12A])
	assert.False(t, ok)
}
