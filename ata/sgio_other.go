//go:build !linux

package ata

import (
	"errors"

	"ssdflashid/flash"
)

// Open is only implemented on Linux, where SG_IO exists.
func Open(path string) (*Device, error) {
	return nil, &flash.OpenError{Path: path, Err: errors.ErrUnsupported}
}
