package tools

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ExecuteCommandToolName is the name the model uses to run commands.
const ExecuteCommandToolName = "execute_command"

// ExecuteCommandTool runs system commands and skill scripts through the dispatcher.
type ExecuteCommandTool struct {
	dispatcher *dispatch.Dispatcher
}

// ExecuteCommandInput defines the input parameters for the execute_command tool
type ExecuteCommandInput struct {
	CommandPath string   `json:"command_path" jsonschema:"description=Path to the command or script file to execute (absolute or relative path) such as 'cat' or 'ls' or 'SKILLS/skill-name/scripts/script.py'"`
	CommandArgs []string `json:"command_args,omitempty" jsonschema:"description=Optional list of command-line arguments to pass to the command"`
}

// ExecuteCommandToolResult is the observation of one command run.
type ExecuteCommandToolResult struct {
	output   string
	isError  bool
	metadata tooltypes.ExecuteCommandMetadata
}

// NewExecuteCommandTool wraps a dispatcher as a tool.
func NewExecuteCommandTool(dispatcher *dispatch.Dispatcher) *ExecuteCommandTool {
	return &ExecuteCommandTool{dispatcher: dispatcher}
}

func (t *ExecuteCommandTool) Name() string {
	return ExecuteCommandToolName
}

func (t *ExecuteCommandTool) Description() string {
	return `Execute a command or script file with optional arguments and return its output.
Supports shell scripts (.sh), Python scripts (.py), and other executable files.

IMPORTANT: Use direct commands like 'cat', 'ls', 'mkdir' as command_path.
Do NOT use shell names like 'sh', 'bash' as command_path.

Relative script paths are resolved against the project root, which is also the working directory.
Commands are stopped after ` + formatSeconds(t.dispatcher.Timeout()) + ` seconds.

Returns the command's STDOUT/STDERR output, and the exit code when it is not zero.`
}

func (t *ExecuteCommandTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[ExecuteCommandInput]()
}

func (t *ExecuteCommandTool) ValidateInput(parameters string) error {
	var input ExecuteCommandInput
	if err := decodeInput(parameters, &input); err != nil {
		return err
	}
	if strings.TrimSpace(input.CommandPath) == "" {
		return errors.New("command_path is required")
	}
	return nil
}

func (t *ExecuteCommandTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input ExecuteCommandInput
	if err := decodeInput(parameters, &input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("command_path", input.CommandPath),
		attribute.Int("command_args", len(input.CommandArgs)),
		attribute.String("command_kind", dispatch.Classify(input.CommandPath).String()),
	}, nil
}

func (t *ExecuteCommandTool) Execute(ctx context.Context, parameters string) tooltypes.ToolResult {
	var input ExecuteCommandInput
	if err := decodeInput(parameters, &input); err != nil {
		return tooltypes.BaseToolResult{ToolName: ExecuteCommandToolName, Error: err.Error()}
	}
	return t.Run(ctx, dispatch.Request{Path: input.CommandPath, Args: input.CommandArgs})
}

// Run dispatches req and wraps the observation string.
func (t *ExecuteCommandTool) Run(ctx context.Context, req dispatch.Request) *ExecuteCommandToolResult {
	metadata := tooltypes.ExecuteCommandMetadata{
		CommandPath: req.Path,
		CommandArgs: req.Args,
		Kind:        dispatch.Classify(req.Path).String(),
		WorkingDir:  t.dispatcher.ProjectRoot(),
	}

	result, err := t.dispatcher.Run(ctx, req)
	if err != nil {
		metadata.ExitCode = -1
		return &ExecuteCommandToolResult{
			output:   dispatch.Message(req, err),
			isError:  true,
			metadata: metadata,
		}
	}

	metadata.ExitCode = result.ExitCode
	metadata.TimedOut = result.TimedOut
	metadata.ExecutionTime = result.Duration
	return &ExecuteCommandToolResult{
		output:   dispatch.Format(result),
		isError:  result.TimedOut || result.ExitCode != 0,
		metadata: metadata,
	}
}

func (r *ExecuteCommandToolResult) AssistantFacing() string { return r.output }

func (r *ExecuteCommandToolResult) UserFacing() string { return r.output }

func (r *ExecuteCommandToolResult) IsError() bool { return r.isError }

func (r *ExecuteCommandToolResult) GetError() string {
	if !r.isError {
		return ""
	}
	return r.output
}

func (r *ExecuteCommandToolResult) GetResult() string { return r.output }

func (r *ExecuteCommandToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  ExecuteCommandToolName,
		Success:   !r.isError,
		Error:     r.GetError(),
		Metadata:  r.metadata,
		Timestamp: time.Now(),
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
