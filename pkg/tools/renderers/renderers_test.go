package renderers

import (
	"testing"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/stretchr/testify/assert"
)

func TestRenderLoadSkill(t *testing.T) {
	registry := NewRendererRegistry()

	out := registry.Render(tools.StructuredToolResult{
		ToolName: "load_skill",
		Success:  true,
		Metadata: tools.LoadSkillMetadata{
			SkillName:      "week-weather-export",
			Directory:      "SKILLS/week-weather-export",
			Found:          true,
			Scripts:        []string{"export_weather.sh"},
			MissingScripts: []string{"old.py"},
		},
	})
	assert.Equal(t, "Skill 'week-weather-export' loaded from SKILLS/week-weather-export\nScripts: export_weather.sh\nMissing scripts: old.py", out)

	out = registry.Render(tools.StructuredToolResult{
		ToolName: "load_skill",
		Error:    "Error: Skill 'x' not found. Available skills: a",
	})
	assert.Equal(t, "Error: Skill 'x' not found. Available skills: a", out)
}

func TestRenderExecuteCommand(t *testing.T) {
	registry := NewRendererRegistry()

	// Pointer metadata is accepted as well as values.
	out := registry.Render(tools.StructuredToolResult{
		ToolName: "execute_command",
		Success:  true,
		Metadata: &tools.ExecuteCommandMetadata{
			CommandPath:   "ls",
			CommandArgs:   []string{"-la"},
			Kind:          "system",
			WorkingDir:    "/project",
			ExecutionTime: 15 * time.Millisecond,
		},
	})
	assert.Equal(t, "Command: ls -la (system)\nExit Code: 0\nWorking Directory: /project\nExecution Time: 15ms", out)

	out = registry.Render(tools.StructuredToolResult{
		ToolName: "execute_command",
		Error:    "Error: Command execution timed out after 30 seconds",
		Metadata: tools.ExecuteCommandMetadata{CommandPath: "sleep", CommandArgs: []string{"60"}, Kind: "system", ExitCode: -1, TimedOut: true},
	})
	assert.Equal(t, "Command: sleep 60 (system)\nTimed out\n\nError: Command execution timed out after 30 seconds", out)
}

func TestRenderFallback(t *testing.T) {
	registry := NewRendererRegistry()

	out := registry.Render(tools.StructuredToolResult{ToolName: "mystery", Error: "Unknown tool 'mystery'"})
	assert.Equal(t, "Error (mystery): Unknown tool 'mystery'", out)

	out = registry.Render(tools.StructuredToolResult{
		ToolName:  "mystery",
		Success:   true,
		Timestamp: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	})
	assert.Equal(t, "Tool Result (mystery):\nSuccess: true\nTimestamp: 2025-06-01 09:30:00", out)
}
