package ata

// SG_IO driver_status bit set when sense data was returned. It is expected on
// every command because the CDBs request CK_COND.
const driverSense = 0x08

// Offsets into descriptor-format sense data carrying an ATA Status Return
// descriptor at byte 8.
const (
	senseDescFormat  = 0x72
	senseDescOffset  = 8
	ataStatusDesc    = 0x09
	ataStatusDescLen = 0x0C
	senseErrorReg    = 11
	senseStatusReg   = 21
	senseMinLen      = senseStatusReg + 1
	ataStatusErr     = 0x01
)

// reply is what the kernel reports back for one SG_IO request.
type reply struct {
	hostStatus   uint16
	driverStatus uint16
	sense        []byte // bytes actually written by the driver
}

// checkStatus classifies a completed SG_IO request. A missing ATA Status
// Return descriptor counts as success: several bridges never fill it in.
func checkStatus(command byte, r reply) error {
	if r.hostStatus != 0 || r.driverStatus&^driverSense != 0 {
		return &TransportError{Command: command, HostStatus: r.hostStatus, DriverStatus: r.driverStatus}
	}
	s := r.sense
	if len(s) < senseMinLen || s[0] != senseDescFormat {
		return nil
	}
	if s[senseDescOffset] != ataStatusDesc || s[senseDescOffset+1] != ataStatusDescLen {
		return nil
	}
	if s[senseStatusReg]&ataStatusErr != 0 {
		return &CommandError{Command: command, Status: s[senseStatusReg], ErrorReg: s[senseErrorReg]}
	}
	return nil
}
