package controller

import (
	"ssdflashid/ata"
	"ssdflashid/nvme"
)

type nvmeCall struct {
	kind string // "read", "write" or "nodata"
	cmd  nvme.Command
	data []byte // copy of the payload for writes
	n    int
}

// fakeNVMe records admin commands and lets each test script the replies.
type fakeNVMe struct {
	calls   []nvmeCall
	respond func(kind string, c nvme.Command, buf []byte) error
}

func (f *fakeNVMe) do(kind string, c nvme.Command, buf []byte) (uint32, error) {
	call := nvmeCall{kind: kind, cmd: c, n: len(buf)}
	if kind == "write" {
		call.data = append([]byte(nil), buf...)
	}
	f.calls = append(f.calls, call)
	if f.respond == nil {
		return 0, nil
	}
	return 0, f.respond(kind, c, buf)
}

func (f *fakeNVMe) AdminRead(c nvme.Command, buf []byte) (uint32, error) {
	return f.do("read", c, buf)
}

func (f *fakeNVMe) AdminWrite(c nvme.Command, buf []byte) (uint32, error) {
	return f.do("write", c, buf)
}

func (f *fakeNVMe) AdminNoData(c nvme.Command) (uint32, error) {
	return f.do("nodata", c, nil)
}

func (f *fakeNVMe) opcodes() []byte {
	ops := make([]byte, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.cmd.Opcode
	}
	return ops
}

type ataCall struct {
	kind string // "read", "dma", "write", "nodata", "readext", "nodataext"
	tf   ata.Taskfile
	hob  ata.HOB
	data []byte
	n    int
}

// fakeATA records ATA commands and lets each test script the replies.
type fakeATA struct {
	calls   []ataCall
	respond func(kind string, tf ata.Taskfile, hob ata.HOB, buf []byte) error
}

func (f *fakeATA) do(kind string, tf ata.Taskfile, hob ata.HOB, buf []byte) error {
	call := ataCall{kind: kind, tf: tf, hob: hob, n: len(buf)}
	if kind == "write" {
		call.data = append([]byte(nil), buf...)
	}
	f.calls = append(f.calls, call)
	if f.respond == nil {
		return nil
	}
	return f.respond(kind, tf, hob, buf)
}

func (f *fakeATA) Read(tf ata.Taskfile, buf []byte) error    { return f.do("read", tf, ata.HOB{}, buf) }
func (f *fakeATA) ReadDMA(tf ata.Taskfile, buf []byte) error { return f.do("dma", tf, ata.HOB{}, buf) }
func (f *fakeATA) Write(tf ata.Taskfile, buf []byte) error   { return f.do("write", tf, ata.HOB{}, buf) }
func (f *fakeATA) NoData(tf ata.Taskfile) error              { return f.do("nodata", tf, ata.HOB{}, nil) }

func (f *fakeATA) ReadExt(tf ata.Taskfile, hob ata.HOB, buf []byte) error {
	return f.do("readext", tf, hob, buf)
}

func (f *fakeATA) NoDataExt(tf ata.Taskfile, hob ata.HOB) error {
	return f.do("nodataext", tf, hob, nil)
}

func (f *fakeATA) commands() []byte {
	cmds := make([]byte, len(f.calls))
	for i, c := range f.calls {
		cmds[i] = c.tf.Command
	}
	return cmds
}

var (
	micronID  = []byte{0x2C, 0xA4, 0x64, 0x32, 0xAA, 0x04, 0x00, 0x00}
	toshibaID = []byte{0x98, 0x3C, 0x98, 0xB3, 0x76, 0x72, 0x08, 0x00}
	hynixID   = []byte{0xAD, 0xDE, 0x14, 0xA7, 0x42, 0x4A, 0x00, 0x00}
)
