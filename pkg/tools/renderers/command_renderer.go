package renderers

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/types/tools"
)

// CommandRenderer renders execute_command results
type CommandRenderer struct{}

func (r *CommandRenderer) RenderCLI(result tools.StructuredToolResult) string {
	var meta tools.ExecuteCommandMetadata
	if !extractMetadata(result.Metadata, &meta) {
		if !result.Success {
			return result.Error
		}
		return "Error: Invalid metadata type for execute_command"
	}

	var output strings.Builder
	command := strings.TrimSpace(strings.Join(append([]string{meta.CommandPath}, meta.CommandArgs...), " "))
	fmt.Fprintf(&output, "Command: %s (%s)\n", command, meta.Kind)

	switch {
	case meta.TimedOut:
		output.WriteString("Timed out\n")
	case meta.ExitCode >= 0:
		fmt.Fprintf(&output, "Exit Code: %d\n", meta.ExitCode)
	}
	if meta.WorkingDir != "" {
		fmt.Fprintf(&output, "Working Directory: %s\n", meta.WorkingDir)
	}
	if meta.ExecutionTime > 0 {
		fmt.Fprintf(&output, "Execution Time: %v\n", meta.ExecutionTime)
	}
	if !result.Success && result.Error != "" {
		fmt.Fprintf(&output, "\n%s", result.Error)
	}

	return strings.TrimRight(output.String(), "\n")
}
