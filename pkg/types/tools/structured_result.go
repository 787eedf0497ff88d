package tools

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

// StructuredToolResult represents a tool's execution result with structured metadata
type StructuredToolResult struct {
	ToolName  string       `json:"toolName"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Metadata  ToolMetadata `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// rawStructuredToolResult is used for JSON marshaling/unmarshaling
type rawStructuredToolResult struct {
	ToolName     string          `json:"toolName"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	MetadataType string          `json:"metadataType,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MarshalJSON tags the metadata with its type so it can be restored.
func (s StructuredToolResult) MarshalJSON() ([]byte, error) {
	raw := rawStructuredToolResult{
		ToolName:  s.ToolName,
		Success:   s.Success,
		Error:     s.Error,
		Timestamp: s.Timestamp,
	}

	if s.Metadata != nil {
		raw.MetadataType = s.Metadata.ToolType()
		metadataBytes, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal metadata")
		}
		raw.Metadata = metadataBytes
	}

	return json.Marshal(raw)
}

// metadataTypeRegistry maps metadata type strings to their corresponding Go types
var metadataTypeRegistry = map[string]reflect.Type{
	LoadSkillMetadata{}.ToolType():      reflect.TypeOf(LoadSkillMetadata{}),
	ExecuteCommandMetadata{}.ToolType(): reflect.TypeOf(ExecuteCommandMetadata{}),
}

// UnmarshalJSON restores typed metadata. Unknown metadata types are dropped.
func (s *StructuredToolResult) UnmarshalJSON(data []byte) error {
	var raw rawStructuredToolResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.ToolName = raw.ToolName
	s.Success = raw.Success
	s.Error = raw.Error
	s.Timestamp = raw.Timestamp
	s.Metadata = nil

	if raw.MetadataType == "" || len(raw.Metadata) == 0 {
		return nil
	}
	metadataType, exists := metadataTypeRegistry[raw.MetadataType]
	if !exists {
		return nil
	}

	metadataPtr := reflect.New(metadataType)
	if err := json.Unmarshal(raw.Metadata, metadataPtr.Interface()); err != nil {
		return errors.Wrapf(err, "failed to unmarshal metadata of type %s", raw.MetadataType)
	}
	s.Metadata = metadataPtr.Elem().Interface().(ToolMetadata)

	return nil
}

// ToolMetadata is a marker interface for tool-specific metadata structures
type ToolMetadata interface {
	ToolType() string
}

// LoadSkillMetadata describes a load_skill call.
type LoadSkillMetadata struct {
	SkillName       string   `json:"skillName"`
	Directory       string   `json:"directory,omitempty"`
	Found           bool     `json:"found"`
	Scripts         []string `json:"scripts,omitempty"`
	MissingScripts  []string `json:"missingScripts,omitempty"`
	AvailableSkills []string `json:"availableSkills,omitempty"`
}

func (m LoadSkillMetadata) ToolType() string { return "load_skill" }

// ExecuteCommandMetadata describes an execute_command call.
type ExecuteCommandMetadata struct {
	CommandPath   string        `json:"commandPath"`
	CommandArgs   []string      `json:"commandArgs,omitempty"`
	Kind          string        `json:"kind"`
	ExitCode      int           `json:"exitCode"`
	TimedOut      bool          `json:"timedOut"`
	ExecutionTime time.Duration `json:"executionTime"`
	WorkingDir    string        `json:"workingDir"`
}

func (m ExecuteCommandMetadata) ToolType() string { return "execute_command" }
