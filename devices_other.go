//go:build !linux

package main

import (
	"errors"
	"fmt"
	"runtime"

	"ssdflashid/controller"
)

var errUnsupportedOS = fmt.Errorf("unsupported OS %s: %w", runtime.GOOS, errors.ErrUnsupported)

func checkRoot() error { return nil }

func discoverDevices() ([]candidate, error) { return nil, errUnsupportedOS }

func busOf(path string) (controller.Bus, error) {
	if bus, ok := busFromName(path); ok {
		return bus, nil
	}
	return 0, errUnsupportedOS
}
