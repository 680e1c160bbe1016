package main

import (
	"path/filepath"
	"sort"
	"strings"

	"ssdflashid/controller"
)

// candidate is a device node the tool can scan.
type candidate struct {
	Path string
	Bus  controller.Bus
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func allLower(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// nvmeController maps "nvme0" and its namespaces ("nvme0n1") to the
// controller node name. Partitions are rejected.
func nvmeController(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "nvme")
	if !ok {
		return "", false
	}
	ctrl, ns, hasNS := strings.Cut(rest, "n")
	if !allDigits(ctrl) || (hasNS && !allDigits(ns)) {
		return "", false
	}
	return "nvme" + ctrl, true
}

// isWholeSATADisk matches sda, sdb, ..., sdaa but not partitions.
func isWholeSATADisk(name string) bool {
	rest, ok := strings.CutPrefix(name, "sd")
	return ok && allLower(rest)
}

// busFromName classifies a device path by its node name.
func busFromName(path string) (controller.Bus, bool) {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "sd"):
		return controller.BusSATA, true
	case strings.HasPrefix(name, "nvme"):
		return controller.BusNVMe, true
	}
	return 0, false
}

// candidatesFromNames turns /dev entry or block device names into scan
// candidates: NVMe controllers (deduplicated across namespaces) first, then
// SATA disks, each sorted by path.
func candidatesFromNames(dir string, names []string) []candidate {
	seen := map[string]bool{}
	var nvmes, satas []candidate
	for _, n := range names {
		if ctrl, ok := nvmeController(n); ok {
			if !seen[ctrl] {
				seen[ctrl] = true
				nvmes = append(nvmes, candidate{Path: filepath.Join(dir, ctrl), Bus: controller.BusNVMe})
			}
			continue
		}
		if isWholeSATADisk(n) {
			satas = append(satas, candidate{Path: filepath.Join(dir, n), Bus: controller.BusSATA})
		}
	}
	byPath := func(c []candidate) {
		sort.Slice(c, func(i, j int) bool { return c[i].Path < c[j].Path })
	}
	byPath(nvmes)
	byPath(satas)
	return append(nvmes, satas...)
}
