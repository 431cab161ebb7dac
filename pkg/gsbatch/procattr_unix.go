//go:build unix

package gsbatch

import (
	"os/exec"
	"syscall"
)

// isolateProcess places the engine subprocess in its own process group so a
// terminal interrupt reaches only the coordinating process. The worker's
// signal disposition is fixed once at spawn time.
func isolateProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
