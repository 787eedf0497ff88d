// Package tools defines the contract between the agent loop and the
// capabilities it exposes to the model.
package tools

import (
	"context"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Tool is a named capability the model can call with JSON arguments.
type Tool interface {
	GenerateSchema() *jsonschema.Schema
	Name() string
	Description() string
	ValidateInput(parameters string) error
	Execute(ctx context.Context, parameters string) ToolResult
	TracingKVs(parameters string) ([]attribute.KeyValue, error)
}

// ToolResult is the outcome of a tool call.
type ToolResult interface {
	// AssistantFacing is the observation appended to the conversation.
	AssistantFacing() string
	// UserFacing is a short rendering for the terminal.
	UserFacing() string
	IsError() bool
	GetError() string
	GetResult() string
	StructuredData() StructuredToolResult
}

// BaseToolResult is used for failures that happen before a tool runs, such
// as an unknown tool name or invalid input.
type BaseToolResult struct {
	ToolName string
	Result   string
	Error    string
}

func (t BaseToolResult) AssistantFacing() string {
	if t.Error != "" {
		return "Error: " + t.Error
	}
	return t.Result
}

func (t BaseToolResult) UserFacing() string { return t.AssistantFacing() }

func (t BaseToolResult) IsError() bool { return t.Error != "" }

func (t BaseToolResult) GetError() string { return t.Error }

func (t BaseToolResult) GetResult() string { return t.Result }

func (t BaseToolResult) StructuredData() StructuredToolResult {
	return StructuredToolResult{
		ToolName: t.ToolName,
		Success:  !t.IsError(),
		Error:    t.Error,
	}
}
