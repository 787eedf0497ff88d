package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoOutputMessage is returned when a command exits 0 without printing anything.
const NoOutputMessage = "Command executed successfully with no output."

// Request is a single execute_command invocation.
type Request struct {
	Path string
	Args []string
}

// String renders the request as a command line, for logs and display only.
func (r Request) String() string {
	return strings.TrimSpace(strings.Join(append([]string{r.Path}, r.Args...), " "))
}

// Result holds the captured outcome of a command that was spawned.
type Result struct {
	Kind     Kind
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Timeout  time.Duration
	Duration time.Duration
}

// Format merges the streams into the observation string handed back to the
// model.
func Format(r *Result) string {
	if r.TimedOut {
		return TimeoutMessage(r.Timeout)
	}

	var b strings.Builder
	if r.Stdout != "" {
		b.WriteString("STDOUT:\n")
		b.WriteString(r.Stdout)
		b.WriteString("\n")
	}
	if r.Stderr != "" {
		b.WriteString("STDERR:\n")
		b.WriteString(r.Stderr)
		b.WriteString("\n")
	}
	if r.ExitCode != 0 {
		fmt.Fprintf(&b, "\nExit code: %d", r.ExitCode)
	}

	if b.Len() == 0 {
		return NoOutputMessage
	}
	return b.String()
}

// TimeoutMessage is the observation for a command killed at its deadline.
func TimeoutMessage(timeout time.Duration) string {
	return "Error: Command execution timed out after " + strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64) + " seconds"
}
