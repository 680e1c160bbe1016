//go:build !linux

package nvme

import (
	"errors"

	"ssdflashid/flash"
)

// Open is only implemented on Linux.
func Open(path string) (*Device, error) {
	return nil, &flash.OpenError{Path: path, Err: errors.ErrUnsupported}
}
