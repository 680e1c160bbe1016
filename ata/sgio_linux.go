//go:build linux

package ata

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"ssdflashid/flash"
)

const sgIO = 0x2285

// sgIoHdr mirrors struct sg_io_hdr from <scsi/sg.h>. Field order and Go's
// natural alignment reproduce the C layout; sgio_linux_test.go pins the
// 64-bit offsets.
type sgIoHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         unsafe.Pointer
	cmdp           unsafe.Pointer
	sbp            unsafe.Pointer
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         unsafe.Pointer
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

type sgFile struct {
	f *os.File
}

// Open opens path read-write for SG_IO.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &flash.OpenError{Path: path, Err: err}
	}
	return &Device{path: path, t: &sgFile{f: os.NewFile(uintptr(fd), path)}}, nil
}

func (s *sgFile) submit(req *request) (reply, error) {
	hdr := sgIoHdr{
		interfaceID:    'S',
		dxferDirection: int32(req.dir),
		cmdLen:         uint8(len(req.cdb)),
		mxSbLen:        senseLen,
		dxferLen:       uint32(len(req.data)),
		cmdp:           unsafe.Pointer(&req.cdb[0]),
		sbp:            unsafe.Pointer(&req.sense[0]),
		timeout:        timeoutMS,
	}
	if len(req.data) > 0 {
		hdr.dxferp = unsafe.Pointer(&req.data[0])
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, s.f.Fd(), sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(req)
	runtime.KeepAlive(s.f)
	if errno != 0 {
		return reply{}, errno
	}

	n := int(hdr.sbLenWr)
	if n > senseLen {
		n = senseLen
	}
	return reply{
		hostStatus:   hdr.hostStatus,
		driverStatus: hdr.driverStatus,
		sense:        req.sense[:n],
	}, nil
}

func (s *sgFile) close() error { return s.f.Close() }
