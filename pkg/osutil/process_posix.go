//go:build unix

// Package osutil holds the small amount of platform specific process
// handling the command dispatcher needs.
package osutil

import (
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// SetProcessGroup configures the command to run in its own process group.
// This allows killing the entire process tree on timeout.
func SetProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// SetProcessGroupKill sets up a cancel function that kills the process tree
// and then the entire process group.
// Must be called after SetProcessGroup and before cmd.Start().
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		treeErr := KillProcessTree(cmd.Process.Pid)
		if err := KillProcessGroup(cmd.Process.Pid); err != nil {
			return err
		}
		return treeErr
	}
}

// KillProcessGroup sends SIGKILL to every process in the group led by pid.
// A group that is already gone is not an error.
func KillProcessGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return errors.Wrapf(err, "failed to kill process group %d", pid)
}
