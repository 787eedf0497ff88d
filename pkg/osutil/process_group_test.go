//go:build unix

package osutil

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProcessGroup(t *testing.T) {
	cmd := exec.Command("echo", "test")
	SetProcessGroup(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid, "Setpgid should be true")
}

func TestSetProcessGroupKill_KillsChildren(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The parent prints the pid of a background child and then waits on it.
	cmd := exec.CommandContext(ctx, "/bin/bash", "-c", `sleep 30 & echo $!; wait`)
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)

	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	childPid, err := strconv.Atoi(strings.TrimSpace(line))
	require.NoError(t, err)
	require.NoError(t, syscall.Kill(childPid, 0), "child should be running")

	cancel()
	_ = cmd.Wait()

	assert.Eventually(t, func() bool {
		return !IsProcessAlive(childPid)
	}, 2*time.Second, 20*time.Millisecond, "child process should be killed with its group")
}

func TestSetProcessGroupKill_ProcessAlreadyDead(t *testing.T) {
	cmd := exec.Command("true")
	SetProcessGroup(cmd)
	SetProcessGroupKill(cmd)

	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Wait())

	assert.NoError(t, cmd.Cancel(), "cancel should tolerate an exited process group")
}

func TestSetProcessGroupKill_NotStarted(t *testing.T) {
	cmd := exec.Command("true")
	SetProcessGroupKill(cmd)
	assert.NoError(t, cmd.Cancel())
}

func TestKillProcessTree_KillsDescendantsOutsideGroup(t *testing.T) {
	// No process group: only the tree walk can reach the child.
	cmd := exec.Command("/bin/bash", "-c", `sleep 30 & echo $!; wait`)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	childPid, err := strconv.Atoi(strings.TrimSpace(line))
	require.NoError(t, err)

	assert.Contains(t, Descendants(cmd.Process.Pid), childPid)
	require.NoError(t, KillProcessTree(cmd.Process.Pid))
	_ = cmd.Wait()

	assert.Eventually(t, func() bool {
		return !IsProcessAlive(childPid)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestKillProcessTree_ExitedProcess(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	assert.Empty(t, Descendants(cmd.Process.Pid))
	assert.NoError(t, KillProcessTree(cmd.Process.Pid))
}

func TestIsProcessAlive(t *testing.T) {
	assert.True(t, IsProcessAlive(os.Getpid()))
}
