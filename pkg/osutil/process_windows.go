//go:build windows

// Package osutil holds the small amount of platform specific process
// handling the command dispatcher needs.
package osutil

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// SetProcessGroup configures the command to run in its own process group.
// On Windows, this is a no-op as process groups work differently.
func SetProcessGroup(_ *exec.Cmd) {
	// No equivalent to Setpgid on Windows for foreground processes
}

// SetProcessGroupKill sets up a cancel function that terminates the process
// and the children it spawned. Windows has no Unix-style process groups, so
// the tree is walked instead.
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := KillProcessTree(cmd.Process.Pid); err != nil {
			return cmd.Process.Signal(os.Kill)
		}
		return nil
	}
}

// KillProcessGroup terminates the process with the given pid.
func KillProcessGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "failed to kill process %d", pid)
	}
	return nil
}
