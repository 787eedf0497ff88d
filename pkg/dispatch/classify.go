// Package dispatch routes a command request either to a shell (system
// utilities such as `ls -la`) or to a file on disk (skill scripts and
// binaries), runs it under a hard timeout and normalises every outcome into
// a single observation string for the model.
package dispatch

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Kind is the execution mode chosen for a request.
type Kind int

const (
	// KindRejected marks requests that must not be run at all.
	KindRejected Kind = iota
	// KindSystem runs path and args as one shell-interpreted command line.
	KindSystem
	// KindFile runs a file on disk with an argument vector, no shell.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindFile:
		return "file"
	default:
		return "rejected"
	}
}

// ShellNames are interpreters that are never accepted as a command path.
// Naming one would nest a shell inside the shell used for system commands.
var ShellNames = []string{"sh", "bash", "zsh", "dash", "ksh", "fish", "csh", "tcsh"}

// IsShell reports whether path names a shell interpreter, either bare or as
// the base name of a path.
func IsShell(path string) bool {
	base := filepath.Base(strings.TrimSpace(path))
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")
	return slices.Contains(ShellNames, base)
}

// Classify decides how path is executed. The checks run in order: shell
// names are rejected, both bare and as the first word of an inline command
// line such as "bash -c ...", a path with no separator and no leading "." is
// a system command, anything else is a file.
func Classify(path string) Kind {
	path = strings.TrimSpace(path)
	switch {
	case path == "" || IsShell(path) || IsShell(strings.Fields(path)[0]):
		return KindRejected
	case !strings.ContainsRune(path, os.PathSeparator) && !strings.ContainsRune(path, '/') && !strings.HasPrefix(path, "."):
		return KindSystem
	default:
		return KindFile
	}
}
