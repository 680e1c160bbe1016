package ata

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Transfer directions of an SG_IO request (SG_DXFER_*).
type direction int32

const (
	dirNone    direction = -1
	dirToDev   direction = -2
	dirFromDev direction = -3
)

const (
	senseLen  = 32
	timeoutMS = 10000
)

// request is one pass-through command ready for submission.
type request struct {
	cdb   [16]byte
	dir   direction
	data  []byte
	sense [senseLen]byte
}

// transport submits requests to an open device node.
type transport interface {
	submit(req *request) (reply, error)
	close() error
}

// Device is an open SCSI generic handle to one ATA disk.
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

// Read issues a PIO data-in command and fills buf.
func (d *Device) Read(tf Taskfile, buf []byte) error {
	return d.exec(tf.Command, BuildCDB(ProtoPIODataIn, OpRead, tf), dirFromDev, buf)
}

// ReadDMA issues a DMA data-in command and fills buf.
func (d *Device) ReadDMA(tf Taskfile, buf []byte) error {
	return d.exec(tf.Command, BuildCDB(ProtoDMA, OpRead, tf), dirFromDev, buf)
}

// Write issues a PIO data-out command sending buf.
func (d *Device) Write(tf Taskfile, buf []byte) error {
	return d.exec(tf.Command, BuildCDB(ProtoPIODataOut, OpWrite, tf), dirToDev, buf)
}

// NoData issues a command without a data phase.
func (d *Device) NoData(tf Taskfile) error {
	return d.exec(tf.Command, BuildCDB(ProtoNonData, OpNonData, tf), dirNone, nil)
}

// ReadExt is Read with 48-bit register pairs.
func (d *Device) ReadExt(tf Taskfile, hob HOB, buf []byte) error {
	return d.exec(tf.Command, BuildCDBExt(ProtoPIODataIn, OpRead, tf, hob), dirFromDev, buf)
}

// NoDataExt is NoData with 48-bit register pairs.
func (d *Device) NoDataExt(tf Taskfile, hob HOB) error {
	return d.exec(tf.Command, BuildCDBExt(ProtoNonData, OpNonData, tf, hob), dirNone, nil)
}

// Identify runs IDENTIFY DEVICE and parses the text fields.
func (d *Device) Identify() (*Identity, error) {
	buf := make([]byte, IdentifyLen)
	if err := d.Read(Taskfile{Command: CmdIdentify, Count: 1, Device: DeviceLBA}, buf); err != nil {
		return nil, fmt.Errorf("identify device: %w", err)
	}
	return ParseIdentify(buf), nil
}

func (d *Device) exec(command byte, cdb [16]byte, dir direction, data []byte) error {
	if d.t == nil {
		return &TransportError{Command: command, Errno: errClosed}
	}
	log.WithFields(log.Fields{
		"command": fmt.Sprintf("0x%02x", command),
		"cdb":     fmt.Sprintf("% x", cdb[:]),
		"len":     len(data),
	}).Debug("ata pass-through")

	req := &request{cdb: cdb, dir: dir, data: data}
	r, err := d.t.submit(req)
	if err != nil {
		return &TransportError{Command: command, Errno: err}
	}
	return checkStatus(command, r)
}
