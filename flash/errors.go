package flash

import "errors"

// Failure classes shared by the transports and the extractors. Transport
// packages return typed errors that unwrap to one of these, so callers can
// branch with errors.Is.
var (
	// ErrOpen means the device node could not be opened.
	ErrOpen = errors.New("device open failed")
	// ErrTransport means the control call itself failed or the host/driver
	// reported a fatal status.
	ErrTransport = errors.New("transport failure")
	// ErrRejected means the device took the command and reported failure.
	ErrRejected = errors.New("command rejected")
	// ErrProtocolMismatch means the response lacks the expected vendor signature.
	ErrProtocolMismatch = errors.New("protocol mismatch")
	// ErrEmpty means every candidate slot was empty or failed validation.
	ErrEmpty = errors.New("no flash id data")
	// ErrNotDetected means no controller family matched.
	ErrNotDetected = errors.New("controller not detected")
)

// OpenError reports a device node that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return "failed to open " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both ErrOpen and the underlying OS error.
func (e *OpenError) Unwrap() []error { return []error{ErrOpen, e.Err} }
