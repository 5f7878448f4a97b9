//go:build windows

package executor

import (
	"os/exec"
	"time"
)

// configureProcess bounds how long Wait blocks on inherited pipes once the
// command has been canceled.
func configureProcess(cmd *exec.Cmd) {
	cmd.WaitDelay = 2 * time.Second
}
