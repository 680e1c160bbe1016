package nvme

import (
	"encoding/binary"
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdflashid/flash"
)

type fakeTransport struct {
	cmds   []passthruCmd
	fill   []byte
	result uint32
	err    error
	closed bool
}

func (f *fakeTransport) submit(cmd *passthruCmd, data []byte) error {
	cmd.result = f.result
	f.cmds = append(f.cmds, *cmd)
	copy(data, f.fill)
	return f.err
}

func (f *fakeTransport) close() error {
	f.closed = true
	return nil
}

func TestPassthruLayout(t *testing.T) {
	var c passthruCmd
	assert.Equal(t, uintptr(72), unsafe.Sizeof(c))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(c.nsid))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(c.metadata))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(c.addr))
	assert.Equal(t, uintptr(36), unsafe.Offsetof(c.dataLen))
	assert.Equal(t, uintptr(40), unsafe.Offsetof(c.cdw10))
	assert.Equal(t, uintptr(60), unsafe.Offsetof(c.cdw15))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(c.timeoutMS))
	assert.Equal(t, uintptr(68), unsafe.Offsetof(c.result))
}

func TestAdminCommandFields(t *testing.T) {
	ft := &fakeTransport{result: 7}
	d := &Device{path: "/dev/nvme0", t: ft}

	res, err := d.AdminRead(Command{Opcode: 0xF2, CDW10: 0x400, CDW14: 0x54495247, CDW15: 0x4F4E4E49}, make([]byte, 4096))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), res)

	_, err = d.AdminWrite(Command{Opcode: 0xC1, NSID: 1, CDW12: 0x08}, make([]byte, 512))
	require.NoError(t, err)
	_, err = d.AdminNoData(Command{Opcode: 0xFC, CDW13: 0x0050FFFF})
	require.NoError(t, err)

	require.Len(t, ft.cmds, 3)
	r := ft.cmds[0]
	assert.Equal(t, uint8(0xF2), r.opcode)
	assert.Equal(t, uint32(0x400), r.cdw10)
	assert.Equal(t, uint32(0x54495247), r.cdw14)
	assert.Equal(t, uint32(0x4F4E4E49), r.cdw15)
	assert.Equal(t, uint32(4096), r.dataLen)
	assert.Equal(t, uint32(timeoutMS), r.timeoutMS)

	assert.Equal(t, uint32(1), ft.cmds[1].nsid)
	assert.Equal(t, uint32(512), ft.cmds[1].dataLen)
	assert.Equal(t, uint32(0), ft.cmds[2].dataLen)
	assert.Equal(t, uint32(0x0050FFFF), ft.cmds[2].cdw13)
}

func TestAdminIoctlFailure(t *testing.T) {
	d := &Device{t: &fakeTransport{err: syscall.EIO}}
	_, err := d.AdminNoData(Command{Opcode: 0xFC})
	assert.ErrorIs(t, err, flash.ErrTransport)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Contains(t, err.Error(), "opcode 0xfc")
}

func TestClosedDevice(t *testing.T) {
	ft := &fakeTransport{}
	d := &Device{t: ft}
	require.NoError(t, d.Close())
	assert.True(t, ft.closed)
	_, err := d.AdminNoData(Command{Opcode: 0xFC})
	assert.ErrorIs(t, err, flash.ErrTransport)
}

func identifyPage() []byte {
	buf := make([]byte, IdentifyLen)
	binary.LittleEndian.PutUint16(buf[0:], 0x126F)
	binary.LittleEndian.PutUint16(buf[2:], 0x2646)
	copy(buf[4:24], "  50026B7684A2F3C1  ")
	copy(buf[24:64], "KINGSTON SNV2S1000G\x00\x00")
	copy(buf[64:72], "SBM02103")
	return buf
}

func TestIdentifyController(t *testing.T) {
	ft := &fakeTransport{fill: identifyPage()}
	d := &Device{t: ft}

	info, err := d.IdentifyController()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x126F), info.VID)
	assert.Equal(t, uint16(0x2646), info.SSVID)
	assert.Equal(t, "50026B7684A2F3C1", info.Serial)
	assert.Equal(t, "KINGSTON SNV2S1000G", info.Model)
	assert.Equal(t, "SBM02103", info.Firmware)

	require.Len(t, ft.cmds, 1)
	assert.Equal(t, uint8(OpIdentify), ft.cmds[0].opcode)
	assert.Equal(t, uint32(CNSController), ft.cmds[0].cdw10)
}

func TestParseIdentifyShort(t *testing.T) {
	assert.Equal(t, &ControllerInfo{}, ParseIdentify(make([]byte, 16)))
}
