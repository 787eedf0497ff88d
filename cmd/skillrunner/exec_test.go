package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCommand(t *testing.T) {
	root := testProject(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.sh"), []byte("echo \"hello $1\"\n"), 0o644))

	var out bytes.Buffer
	err := execCommand(context.Background(), &out, NewExecConfig(), dispatch.Request{Path: "hello.sh", Args: []string{"world"}})
	require.NoError(t, err)
	assert.Equal(t, "STDOUT:\nhello world\n\n\n", out.String())
}

func TestExecCommandRejectsShell(t *testing.T) {
	testProject(t, nil)

	var out bytes.Buffer
	err := execCommand(context.Background(), &out, NewExecConfig(), dispatch.Request{Path: "bash", Args: []string{"-c", "ls"}})
	require.NoError(t, err, "rejections are observations, not command failures")
	assert.Contains(t, out.String(), "Shell interpreters cannot be used as command_path")
}

func TestExecCommandTimeoutFlag(t *testing.T) {
	testProject(t, nil)

	var out bytes.Buffer
	err := execCommand(context.Background(), &out, &ExecConfig{TimeoutSeconds: 1}, dispatch.Request{Path: "sleep", Args: []string{"5"}})
	require.NoError(t, err)
	assert.Equal(t, dispatch.TimeoutMessage(durationFlagSeconds(1))+"\n", out.String())
}
