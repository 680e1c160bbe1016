package ata

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdflashid/flash"
)

// fakeTransport records submitted requests and answers from a script.
type fakeTransport struct {
	reqs   []request
	reply  reply
	err    error
	fill   []byte
	closed bool
}

func (f *fakeTransport) submit(req *request) (reply, error) {
	f.reqs = append(f.reqs, *req)
	copy(req.data, f.fill)
	return f.reply, f.err
}

func (f *fakeTransport) close() error {
	f.closed = true
	return nil
}

// descriptorSense builds descriptor-format sense data carrying an ATA Status
// Return descriptor.
func descriptorSense(status, errReg byte) []byte {
	s := make([]byte, 22)
	s[0] = 0x72
	s[8] = 0x09
	s[9] = 0x0C
	s[11] = errReg
	s[21] = status
	return s
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name    string
		r       reply
		wantErr error
	}{
		{name: "clean", r: reply{}},
		{name: "driver sense only", r: reply{driverStatus: 0x08}},
		{name: "sense without descriptor", r: reply{driverStatus: 0x08, sense: []byte{0x70, 0, 5}}},
		{name: "descriptor ok", r: reply{driverStatus: 0x08, sense: descriptorSense(0x50, 0)}},
		{name: "descriptor err", r: reply{driverStatus: 0x08, sense: descriptorSense(0x51, 0x04)}, wantErr: flash.ErrRejected},
		{name: "short descriptor", r: reply{driverStatus: 0x08, sense: descriptorSense(0x51, 0x04)[:21]}},
		{name: "host status", r: reply{hostStatus: 0x07}, wantErr: flash.ErrTransport},
		{name: "driver timeout", r: reply{driverStatus: 0x06}, wantErr: flash.ErrTransport},
	}
	for i, tt := range tests {
		err := checkStatus(0xEC, tt.r)
		if tt.wantErr == nil {
			assert.NoError(t, err, "[%02d] test %q", i, tt.name)
			continue
		}
		assert.ErrorIs(t, err, tt.wantErr, "[%02d] test %q", i, tt.name)
	}
}

func TestCommandErrorCarriesRegisters(t *testing.T) {
	err := checkStatus(0x86, reply{driverStatus: 0x08, sense: descriptorSense(0x51, 0x04)})
	var cerr *CommandError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, byte(0x86), cerr.Command)
	assert.Equal(t, byte(0x51), cerr.Status)
	assert.Equal(t, byte(0x04), cerr.ErrorReg)
	assert.Equal(t, "ata command 0x86 failed: status=0x51, error=0x04", err.Error())
}

func TestDeviceDirections(t *testing.T) {
	ft := &fakeTransport{}
	d := &Device{path: "/dev/sdz", t: ft}
	buf := make([]byte, 512)
	tf := Taskfile{Command: 0x20, LBALow: 0xAA, Device: 0xE0}

	require.NoError(t, d.Read(tf, buf))
	require.NoError(t, d.ReadDMA(Taskfile{Command: 0xC8}, buf))
	require.NoError(t, d.Write(Taskfile{Command: 0x88}, buf))
	require.NoError(t, d.NoData(Taskfile{Command: 0xEF}))
	require.NoError(t, d.ReadExt(Taskfile{Command: 0xFA}, HOB{LBALow: 0xAF}, buf))
	require.NoError(t, d.NoDataExt(Taskfile{Command: 0xFC}, HOB{Count: 0xFF}))

	want := []struct {
		dir   direction
		byte1 byte
		byte2 byte
		n     int
	}{
		{dirFromDev, 0x08, 0x2E, 512},
		{dirFromDev, 0x0C, 0x2E, 512},
		{dirToDev, 0x0A, 0x26, 512},
		{dirNone, 0x06, 0x20, 0},
		{dirFromDev, 0x09, 0x2E, 512},
		{dirNone, 0x07, 0x20, 0},
	}
	require.Len(t, ft.reqs, len(want))
	for i, w := range want {
		r := ft.reqs[i]
		assert.Equal(t, w.dir, r.dir, "[%02d]", i)
		assert.Equal(t, w.byte1, r.cdb[1], "[%02d]", i)
		assert.Equal(t, w.byte2, r.cdb[2], "[%02d]", i)
		assert.Len(t, r.data, w.n, "[%02d]", i)
	}
	assert.Equal(t, byte(0xAF), ft.reqs[4].cdb[7])
	assert.Equal(t, byte(0xFF), ft.reqs[5].cdb[5])
}

func TestDeviceIoctlFailure(t *testing.T) {
	d := &Device{t: &fakeTransport{err: syscall.EINVAL}}
	err := d.NoData(Taskfile{Command: 0xEF})
	assert.ErrorIs(t, err, flash.ErrTransport)
	assert.ErrorIs(t, err, syscall.EINVAL)
}

func TestDeviceRejectsCommand(t *testing.T) {
	ft := &fakeTransport{reply: reply{driverStatus: 0x08, sense: descriptorSense(0x51, 0x04)}}
	d := &Device{t: ft}
	err := d.Read(Taskfile{Command: 0xEC}, make([]byte, 512))
	assert.ErrorIs(t, err, flash.ErrRejected)
	assert.NotErrorIs(t, err, flash.ErrTransport)
}

func TestDeviceClose(t *testing.T) {
	ft := &fakeTransport{}
	d := &Device{t: ft}
	require.NoError(t, d.Close())
	assert.True(t, ft.closed)
	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.NoData(Taskfile{Command: 0xEF}), flash.ErrTransport)
}

func TestIdentify(t *testing.T) {
	raw := make([]byte, 512)
	copy(raw[20:], swapPairs("S3Z1NB0K123456  "))
	copy(raw[46:], swapPairs("SBFM61.3"))
	copy(raw[54:], swapPairs("Crucial CT500MX500SSD1                  "))
	ft := &fakeTransport{fill: raw}
	d := &Device{t: ft}

	id, err := d.Identify()
	require.NoError(t, err)
	assert.Equal(t, "S3Z1NB0K123456", id.Serial)
	assert.Equal(t, "SBFM61.3", id.Firmware)
	assert.Equal(t, "Crucial CT500MX500SSD1", id.Model)
	assert.Len(t, id.Raw, IdentifyLen)

	cdb := ft.reqs[0].cdb
	assert.Equal(t, [16]byte{0x85, 0x08, 0x2E, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0xE0, 0xEC, 0}, cdb)
}
