package interrupt

import (
	"os/exec"
	"syscall"
)

// Shield starts cmd in its own process group. A Ctrl-C at the terminal is
// delivered to the foreground group only, so a shielded tool keeps running
// until the controller's owner decides to stop at the next safe point.
// Context cancellation still kills the process.
func Shield(cmd *exec.Cmd) *exec.Cmd {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	return cmd
}
