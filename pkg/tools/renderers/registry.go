// Package renderers turns stored structured tool results into terminal text.
package renderers

import (
	"fmt"

	"github.com/jingkaihe/skillrunner/pkg/types/tools"
)

// CLIRenderer interface for rendering structured tool results to CLI output
type CLIRenderer interface {
	RenderCLI(result tools.StructuredToolResult) string
}

// RendererRegistry maps tool names to renderers
type RendererRegistry struct {
	renderers map[string]CLIRenderer
}

// NewRendererRegistry creates and initializes a new renderer registry
func NewRendererRegistry() *RendererRegistry {
	registry := &RendererRegistry{
		renderers: make(map[string]CLIRenderer),
	}

	registry.Register("load_skill", &SkillRenderer{})
	registry.Register("execute_command", &CommandRenderer{})

	return registry
}

// Register adds a renderer for a specific tool name
func (r *RendererRegistry) Register(toolName string, renderer CLIRenderer) {
	r.renderers[toolName] = renderer
}

// Render finds the appropriate renderer and renders the result
func (r *RendererRegistry) Render(result tools.StructuredToolResult) string {
	if renderer, exists := r.renderers[result.ToolName]; exists {
		return renderer.RenderCLI(result)
	}
	return r.renderFallback(result)
}

func (r *RendererRegistry) renderFallback(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error (%s): %s", result.ToolName, result.Error)
	}
	return fmt.Sprintf("Tool Result (%s):\nSuccess: %v\nTimestamp: %s",
		result.ToolName, result.Success, result.Timestamp.Format("2006-01-02 15:04:05"))
}
