//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

// configureProcess places the shell in its own process group so that
// cancellation also reaches anything the command started.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
