//go:build linux

package nvme

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"ssdflashid/flash"
)

// _IOWR('N', 0x41, struct nvme_admin_cmd)
const ioctlAdminCmd = 0xC0484E41

type charDev struct {
	f *os.File
}

// Open opens an NVMe controller node (/dev/nvmeN) read-only; admin
// passthrough does not need write access.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &flash.OpenError{Path: path, Err: err}
	}
	return &Device{path: path, t: &charDev{f: os.NewFile(uintptr(fd), path)}}, nil
}

func (c *charDev) submit(cmd *passthruCmd, data []byte) error {
	if len(data) > 0 {
		cmd.addr = uint64(uintptr(unsafe.Pointer(&data[0])))
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, c.f.Fd(), ioctlAdminCmd, uintptr(unsafe.Pointer(cmd)))
	runtime.KeepAlive(data)
	runtime.KeepAlive(c.f)
	if errno != 0 {
		return errno
	}
	return nil
}

func (c *charDev) close() error { return c.f.Close() }
