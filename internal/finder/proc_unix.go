//go:build !windows

package finder

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup starts the producer in its own process group so that
// helpers it spawns are signalled together with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminateProcess sends SIGTERM to the process group (negative PID targets
// the group).
func terminateProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

// killProcess sends SIGKILL to the process group.
func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
