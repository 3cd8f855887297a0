//go:build !windows

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// alive sends signal 0, which performs the existence and permission checks
// without delivering anything. EPERM means the process exists but belongs to
// someone else.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
