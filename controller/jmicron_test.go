package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdflashid/ata"
	"ssdflashid/flash"
)

func jmBlob(tag string, table []byte, nand string, m jmModel) []byte {
	fw := make([]byte, jmFirmwareLen)
	copy(fw[0x40:], tag)
	if m.hasTable {
		for i := 0; i < jmTableLen; i++ {
			fw[m.table+i] = jmTableEnd
		}
		copy(fw[m.table:], table)
	}
	copy(fw[m.nandOff:], nand)
	return fw
}

func TestReadJMicronFirmwareID(t *testing.T) {
	blob := jmBlob(",MA1102", nil, "", jmMAS1102)
	dev := &fakeATA{respond: func(kind string, tf ata.Taskfile, _ ata.HOB, buf []byte) error {
		switch {
		case kind == "nodata":
			return errFake
		case kind == "read" && tf.Features == 0x04:
			copy(buf, blob)
		}
		return nil
	}}
	fw, err := ReadJMicronFirmwareID(dev)
	require.NoError(t, err)
	assert.Equal(t, blob, fw)
	assert.Equal(t, []byte{0xEF, 0xEF, 0x88, 0x86, 0x88, 0x86}, dev.commands())

	first, second := dev.calls[2], dev.calls[4]
	assert.Equal(t, []byte{0xFF, 0xE5, 0x86, 0x03}, first.data[:4])
	assert.Equal(t, []byte{0xFF, 0xE5, 0x04, 0xFF}, second.data[:4])
	assert.Equal(t, ata.Taskfile{Command: 0x86, Features: 0x04, Count: 8, LBALow: 0x12, Device: 0xE0}, dev.calls[5].tf)
	assert.Equal(t, jmFirmwareLen, dev.calls[5].n)
}

func TestReadJMicronFirmwareIDFailures(t *testing.T) {
	_, err := ReadJMicronFirmwareID(&fakeATA{respond: failAll})
	assert.ErrorIs(t, err, errFake)

	_, err = ReadJMicronFirmwareID(&fakeATA{})
	assert.ErrorIs(t, err, flash.ErrEmpty)
}

func TestReadJMicronMAS1102(t *testing.T) {
	fw := jmBlob(",MA1102", []byte{0x00, 0x09, 0x11}, "B27A 512Gb\x00junk", jmMAS1102)
	ids := map[byte][]byte{0: micronID, 2: toshibaID}
	var ch byte
	dev := &fakeATA{respond: func(kind string, _ ata.Taskfile, _ ata.HOB, buf []byte) error {
		switch kind {
		case "write":
			ch = buf[7]
		case "read":
			if ch == 1 {
				return errFake
			}
			copy(buf, ids[ch])
		}
		return nil
	}}

	res, err := ReadJMicron(dev, fw)
	require.NoError(t, err)
	assert.Equal(t, "MAS1102 (B27A 512Gb)", res.Controller)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, micronID), flash.NewBank(2, toshibaID)}, res.Banks)

	require.Len(t, dev.calls, 6)
	last := dev.calls[4]
	assert.Equal(t, "write", last.kind)
	assert.Equal(t, byte(0x36), last.data[2])
	assert.Equal(t, byte(2), last.data[7])
	assert.Equal(t, byte(0x11), last.data[0x1C])
	assert.Equal(t, ata.Taskfile{Command: 0x88, Features: 0x12, Count: 0x34, LBALow: 0xFF, Device: 0xE0}, last.tf)
}

func TestReadJMicronMAS0902Channel(t *testing.T) {
	fw := jmBlob(",DM9343", []byte{0x10}, "", jmMAS0902)
	dev := &fakeATA{respond: func(kind string, _ ata.Taskfile, _ ata.HOB, buf []byte) error {
		if kind == "read" {
			copy(buf, hynixID)
		}
		return nil
	}}
	res, err := ReadJMicron(dev, fw)
	require.NoError(t, err)
	assert.Equal(t, "MAS0902", res.Controller)
	assert.Equal(t, []flash.Bank{flash.NewBank(0, hynixID)}, res.Banks)
	assert.Equal(t, byte(1), dev.calls[0].data[7])
}

func TestReadJMicronUnsupported(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "legacy part", tag: ",667"},
		{name: "no tag", tag: "nothing here"},
	}
	for i, tt := range tests {
		fw := make([]byte, jmFirmwareLen)
		copy(fw, tt.tag)
		dev := &fakeATA{}
		_, err := ReadJMicron(dev, fw)
		assert.ErrorIs(t, err, flash.ErrProtocolMismatch, "[%02d] test %q", i, tt.name)
		assert.Empty(t, dev.calls, "[%02d] test %q", i, tt.name)
	}
}

func TestJMDetectOrder(t *testing.T) {
	m, ok := jmDetect([]byte("xx,DM1102,MK8215"))
	require.True(t, ok)
	assert.Equal(t, "MAS1102", m.name)

	m, ok = jmDetect([]byte("fw,805"))
	require.True(t, ok)
	assert.Equal(t, "MK8115", m.name)
	assert.False(t, m.hasTable)
}
