//go:build unix

package gsbatch

import (
	"errors"
	"syscall"
)

// isDiskFull reports whether err is a disk-full or quota-exceeded condition.
func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}
