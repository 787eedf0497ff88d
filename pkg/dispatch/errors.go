package dispatch

import (
	"github.com/pkg/errors"
)

var (
	// ErrShellRejected is returned when the command path names a shell.
	ErrShellRejected = errors.New("shell interpreters cannot be used as command_path")
	// ErrEmptyCommand is returned when no command path was given.
	ErrEmptyCommand = errors.New("command_path is required")
	// ErrFileNotFound is returned when a file command does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrNotExecutable is returned for files without the execute bit whose
	// extension has no known interpreter.
	ErrNotExecutable = errors.New("file is not executable and not a recognized script type")
	// ErrCommandNotAllowed is returned when a system command misses the allowlist.
	ErrCommandNotAllowed = errors.New("command is not in the allowed commands list")
	// ErrCommandBlocked is returned when a system command matches a deny pattern.
	ErrCommandBlocked = errors.New("command blocked by safety guard")
)

// PathError records a file command failure together with the resolved
// absolute path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return e.Err.Error() + ": " + e.Path }

func (e *PathError) Unwrap() error { return e.Err }

// Message converts an error from Dispatcher.Run into the string the model
// sees. Every failure mode has a fixed shape so the model can self-correct.
func Message(req Request, err error) string {
	var pathErr *PathError
	switch {
	case errors.Is(err, ErrEmptyCommand):
		return "Error: command_path is required"
	case errors.Is(err, ErrShellRejected):
		return "Error: Shell interpreters cannot be used as command_path (got '" + req.Path + "'). " +
			"Pass the command itself instead, e.g. command_path='ls' with command_args=['-la'], or the path of a script file."
	case errors.Is(err, ErrCommandNotAllowed):
		return "Error: Command '" + req.String() + "' is not in the allowed commands list"
	case errors.Is(err, ErrCommandBlocked):
		return "Error: Command blocked by safety guard (dangerous pattern detected)"
	case errors.As(err, &pathErr) && errors.Is(err, ErrFileNotFound):
		return "Error: File not found: " + pathErr.Path
	case errors.As(err, &pathErr) && errors.Is(err, ErrNotExecutable):
		return "Error: File is not executable and not a recognized script type: " + pathErr.Path
	default:
		return "Error executing command: " + err.Error()
	}
}
