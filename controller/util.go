package controller

import (
	"fmt"

	"ssdflashid/flash"
)

func anyNonZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return true
		}
	}
	return false
}

// printableUntil returns the bytes of b up to the first one keep rejects,
// limited to limit bytes.
func printableUntil(b []byte, limit int, keep func(byte) bool) []byte {
	if len(b) > limit {
		b = b[:limit]
	}
	for i, c := range b {
		if !keep(c) {
			return b[:i]
		}
	}
	return b
}

func isGraphic(c byte) bool { return c > 0x20 && c < 0x7F }

// firstWithBanks runs attempts in order and returns the first result that
// has banks. An all-empty or all-failed run is an error naming what was tried.
func firstWithBanks(what string, attempts []flash.Attempt) (*flash.Result, error) {
	res, name, err := flash.FirstSuccess(attempts, nil)
	if err != nil {
		return nil, fmt.Errorf("no flash id data in %s responses: %w", what, err)
	}
	if len(res.Banks) == 0 {
		return nil, fmt.Errorf("no flash id data in %s responses (%s): %w", what, name, flash.ErrEmpty)
	}
	return res, nil
}
