//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"

	smart "github.com/anatol/smart.go"
	"github.com/jaypipes/ghw"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"ssdflashid/controller"
)

const devDir = "/dev"

func checkRoot() error {
	if unix.Geteuid() != 0 {
		return fmt.Errorf("root privileges required (try: sudo %s [device])", progName)
	}
	return nil
}

// discoverDevices lists scan candidates from the block device inventory.
// NVMe controllers have no block node of their own, so namespaces are mapped
// back to them. The /dev scan is used when sysfs cannot be read.
func discoverDevices() ([]candidate, error) {
	blk, err := ghw.Block()
	if err != nil {
		log.Debugf("block inventory failed, scanning %s: %v", devDir, err)
		return scanDevDir()
	}
	names := make([]string, 0, len(blk.Disks))
	for _, d := range blk.Disks {
		names = append(names, d.Name)
	}
	return candidatesFromNames(devDir, names), nil
}

func scanDevDir() ([]candidate, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return candidatesFromNames(devDir, names), nil
}

// busOf classifies path by name, then by asking the drive, then by node
// type: block nodes are taken as SATA.
func busOf(path string) (controller.Bus, error) {
	if bus, ok := busFromName(path); ok {
		return bus, nil
	}
	if dev, err := smart.Open(path); err == nil {
		kind := dev.Type()
		dev.Close()
		log.WithFields(log.Fields{"device": path, "type": kind}).Debug("drive type")
		switch kind {
		case "nvme":
			return controller.BusNVMe, nil
		case "sata", "scsi":
			return controller.BusSATA, nil
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if fi.Mode()&os.ModeDevice == 0 {
		return 0, errors.New(path + " is not a device node")
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return controller.BusSATA, nil
	}
	return controller.BusNVMe, nil
}
