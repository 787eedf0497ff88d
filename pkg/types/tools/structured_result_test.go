package tools

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredToolResult_JSONMarshaling(t *testing.T) {
	timestamp := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		result StructuredToolResult
	}{
		{
			name: "LoadSkillMetadata",
			result: StructuredToolResult{
				ToolName:  "load_skill",
				Success:   true,
				Timestamp: timestamp,
				Metadata: LoadSkillMetadata{
					SkillName: "schedule-table-export",
					Directory: "SKILLS/schedule-table-export",
					Found:     true,
					Scripts:   []string{"export_schedule.sh"},
				},
			},
		},
		{
			name: "ExecuteCommandMetadata",
			result: StructuredToolResult{
				ToolName:  "execute_command",
				Success:   false,
				Error:     "Error: Command execution timed out after 30 seconds",
				Timestamp: timestamp,
				Metadata: ExecuteCommandMetadata{
					CommandPath:   "sleep",
					CommandArgs:   []string{"60"},
					Kind:          "system",
					ExitCode:      -1,
					TimedOut:      true,
					ExecutionTime: 30 * time.Second,
					WorkingDir:    "/project",
				},
			},
		},
		{
			name: "no metadata",
			result: StructuredToolResult{
				ToolName:  "unknown",
				Error:     "unknown tool",
				Timestamp: timestamp,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)

			var decoded StructuredToolResult
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.result, decoded)
		})
	}
}

func TestStructuredToolResult_UnknownMetadataType(t *testing.T) {
	data := []byte(`{"toolName":"x","success":true,"metadataType":"retired_tool","metadata":{"a":1},"timestamp":"2025-06-01T09:00:00Z"}`)

	var decoded StructuredToolResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "x", decoded.ToolName)
	assert.Nil(t, decoded.Metadata)
}

func TestBaseToolResult(t *testing.T) {
	failed := BaseToolResult{ToolName: "nope", Error: "unknown tool"}
	assert.True(t, failed.IsError())
	assert.Equal(t, "Error: unknown tool", failed.AssistantFacing())
	assert.Equal(t, StructuredToolResult{ToolName: "nope", Error: "unknown tool"}, failed.StructuredData())

	ok := BaseToolResult{ToolName: "x", Result: "done"}
	assert.False(t, ok.IsError())
	assert.Equal(t, "done", ok.AssistantFacing())
	assert.True(t, ok.StructuredData().Success)
}
