//go:build windows

package gsbatch

import (
	"os/exec"
	"syscall"
)

// isolateProcess detaches the engine subprocess from the console's Ctrl-C
// group so a terminal interrupt reaches only the coordinating process.
func isolateProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
