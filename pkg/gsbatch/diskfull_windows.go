//go:build windows

package gsbatch

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isDiskFull reports whether err is a disk-full condition.
func isDiskFull(err error) bool {
	return errors.Is(err, windows.ERROR_DISK_FULL) || errors.Is(err, windows.ERROR_HANDLE_DISK_FULL)
}
