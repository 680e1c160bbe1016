// Package nvme issues NVMe admin commands through the Linux admin
// passthrough ioctl.
package nvme

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ssdflashid/flash"
)

const timeoutMS = 10000

// Command holds the fields of an admin command the caller controls.
type Command struct {
	Opcode byte
	NSID   uint32
	CDW10  uint32
	CDW11  uint32
	CDW12  uint32
	CDW13  uint32
	CDW14  uint32
	CDW15  uint32
}

// passthruCmd mirrors struct nvme_passthru_cmd from <linux/nvme_ioctl.h>
// (72 bytes, no implicit padding).
type passthruCmd struct {
	opcode      uint8
	flags       uint8
	rsvd1       uint16
	nsid        uint32
	cdw2        uint32
	cdw3        uint32
	metadata    uint64
	addr        uint64
	metadataLen uint32
	dataLen     uint32
	cdw10       uint32
	cdw11       uint32
	cdw12       uint32
	cdw13       uint32
	cdw14       uint32
	cdw15       uint32
	timeoutMS   uint32
	result      uint32
}

func (c Command) passthru() passthruCmd {
	return passthruCmd{
		opcode:    c.Opcode,
		nsid:      c.NSID,
		cdw10:     c.CDW10,
		cdw11:     c.CDW11,
		cdw12:     c.CDW12,
		cdw13:     c.CDW13,
		cdw14:     c.CDW14,
		cdw15:     c.CDW15,
		timeoutMS: timeoutMS,
	}
}

// transport issues one admin command with data as its buffer (nil when
// the command has no data phase) and fills in cmd.result.
type transport interface {
	submit(cmd *passthruCmd, data []byte) error
	close() error
}

// TransportError is a failed admin passthrough ioctl.
type TransportError struct {
	Opcode byte
	Errno  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("nvme ioctl failed: %v (opcode 0x%02x)", e.Errno, e.Opcode)
}

func (e *TransportError) Unwrap() []error { return []error{flash.ErrTransport, e.Errno} }

var errClosed = errors.New("device closed")

// Device is an open NVMe controller character device.
// It is not safe for concurrent use.
type Device struct {
	path string
	t    transport
}

// Path returns the device node the handle was opened on.
func (d *Device) Path() string { return d.path }

// Close releases the handle.
func (d *Device) Close() error {
	if d.t == nil {
		return nil
	}
	err := d.t.close()
	d.t = nil
	return err
}

// AdminRead issues a controller-to-host admin command filling buf and
// returns the completion dword 0.
func (d *Device) AdminRead(c Command, buf []byte) (uint32, error) {
	return d.exec(c, buf)
}

// AdminWrite issues a host-to-controller admin command sending buf.
func (d *Device) AdminWrite(c Command, buf []byte) (uint32, error) {
	return d.exec(c, buf)
}

// AdminNoData issues an admin command without a data phase.
func (d *Device) AdminNoData(c Command) (uint32, error) {
	return d.exec(c, nil)
}

// exec succeeds whenever the ioctl does. A positive ioctl return carries the
// NVMe completion status, which is not decoded.
func (d *Device) exec(c Command, data []byte) (uint32, error) {
	if d.t == nil {
		return 0, &TransportError{Opcode: c.Opcode, Errno: errClosed}
	}
	log.WithFields(log.Fields{
		"opcode": fmt.Sprintf("0x%02x", c.Opcode),
		"cdw10":  fmt.Sprintf("0x%x", c.CDW10),
		"cdw12":  fmt.Sprintf("0x%x", c.CDW12),
		"cdw13":  fmt.Sprintf("0x%x", c.CDW13),
		"cdw14":  fmt.Sprintf("0x%x", c.CDW14),
		"cdw15":  fmt.Sprintf("0x%x", c.CDW15),
		"len":    len(data),
	}).Debug("nvme admin command")

	cmd := c.passthru()
	cmd.dataLen = uint32(len(data))
	if err := d.t.submit(&cmd, data); err != nil {
		return 0, &TransportError{Opcode: c.Opcode, Errno: err}
	}
	return cmd.result, nil
}
