package ata

import (
	"errors"
	"fmt"

	"ssdflashid/flash"
)

// TransportError is a failed SG_IO call or a fatal host/driver status.
type TransportError struct {
	Command      byte
	Errno        error
	HostStatus   uint16
	DriverStatus uint16
}

func (e *TransportError) Error() string {
	if e.Errno != nil {
		return fmt.Sprintf("sg_io ioctl failed: %v (command 0x%02x)", e.Errno, e.Command)
	}
	return fmt.Sprintf("sg_io transport error: host_status=0x%04x, driver_status=0x%04x, command 0x%02x",
		e.HostStatus, e.DriverStatus, e.Command)
}

func (e *TransportError) Unwrap() []error {
	if e.Errno != nil {
		return []error{flash.ErrTransport, e.Errno}
	}
	return []error{flash.ErrTransport}
}

// CommandError is an ATA command the device completed with ERR set in the
// status register.
type CommandError struct {
	Command  byte
	Status   byte
	ErrorReg byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ata command 0x%02x failed: status=0x%02x, error=0x%02x",
		e.Command, e.Status, e.ErrorReg)
}

func (e *CommandError) Unwrap() error { return flash.ErrRejected }

var errClosed = errors.New("device closed")
