// Package tools implements the capabilities exposed to the model and the
// registry that validates a model-supplied tool name before dispatching to
// the typed handler.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("skillrunner.tools")

// GenerateSchema reflects the JSON schema of a tool input struct.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// Registry maps tool names to tools. It is built once and read-only
// afterwards.
type Registry struct {
	tools map[string]tooltypes.Tool
	order []string
}

// NewRegistry registers tools in the given order. Duplicate names are an error.
func NewRegistry(tools ...tooltypes.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tooltypes.Tool, len(tools))}
	for _, tool := range tools {
		name := tool.Name()
		if _, exists := r.tools[name]; exists {
			return nil, errors.Errorf("duplicate tool name: %s", name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r, nil
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []tooltypes.Tool {
	out := make([]tooltypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (tooltypes.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// RunTool validates name and parameters and executes the tool. It never
// returns a Go error: every failure is an error ToolResult whose text the
// model can read and correct.
func (r *Registry) RunTool(ctx context.Context, toolName string, parameters string) tooltypes.ToolResult {
	tool, ok := r.tools[toolName]
	if !ok {
		return tooltypes.BaseToolResult{
			ToolName: toolName,
			Error:    fmt.Sprintf("Unknown tool '%s'. Available tools: %s", toolName, strings.Join(r.Names(), ", ")),
		}
	}

	if strings.TrimSpace(parameters) == "" {
		parameters = "{}"
	}

	kvs, err := tool.TracingKVs(parameters)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("tool", toolName).Debug("failed to get tracing kvs")
	}
	kvs = append(kvs, attribute.String("tool.name", toolName))

	ctx, span := tracer.Start(
		ctx,
		fmt.Sprintf("tools.run_tool.%s", toolName),
		trace.WithAttributes(kvs...),
	)
	defer span.End()

	if err := tool.ValidateInput(parameters); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return tooltypes.BaseToolResult{
			ToolName: toolName,
			Error:    err.Error(),
		}
	}

	result := tool.Execute(ctx, parameters)
	if result.IsError() {
		span.SetStatus(codes.Error, result.GetError())
		span.RecordError(errors.New(result.GetError()))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return result
}

// decodeInput unmarshals tool parameters, rejecting unknown fields the same
// way the generated schemas do.
func decodeInput(parameters string, v any) error {
	dec := json.NewDecoder(strings.NewReader(parameters))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}
