package osutil

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

// IsProcessAlive checks if a process with the given PID is still running.
// Zombies count as dead.
func IsProcessAlive(pid int) bool {
	found, _ := process.PidExists(int32(pid))
	if !found {
		return false
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	status, err := p.Status()
	if err != nil {
		return true
	}
	for _, s := range status {
		if s == process.Zombie {
			return false
		}
	}
	return true
}

// Descendants returns the pids of every process below pid, children before
// grandchildren. A process that has already exited has no descendants.
func Descendants(pid int) []int {
	var pids []int
	queue := []int32{int32(pid)}
	seen := map[int32]bool{int32(pid): true}

	for len(queue) > 0 {
		p, err := process.NewProcess(queue[0])
		queue = queue[1:]
		if err != nil {
			continue
		}
		children, err := p.Children()
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			pids = append(pids, int(c.Pid))
			queue = append(queue, c.Pid)
		}
	}
	return pids
}

// KillProcessTree kills pid's descendants and then pid itself. It reaches
// children that left the process group, e.g. via setsid. Processes that are
// already gone are skipped.
func KillProcessTree(pid int) error {
	var result *multierror.Error
	targets := append(Descendants(pid), pid)

	for _, target := range targets {
		p, err := process.NewProcess(int32(target))
		if err != nil {
			continue
		}
		if err := p.Kill(); err != nil && IsProcessAlive(target) {
			result = multierror.Append(result, errors.Wrapf(err, "failed to kill process %d", target))
		}
	}
	return result.ErrorOrNil()
}
