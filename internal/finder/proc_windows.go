//go:build windows

package finder

import (
	"errors"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

// terminateProcess kills the producer; Windows has no SIGTERM.
func terminateProcess(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	return cmd.Process.Kill()
}
