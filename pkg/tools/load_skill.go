package tools

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/jingkaihe/skillrunner/pkg/skills"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// LoadSkillToolName is the name the model uses to call the skill loader.
const LoadSkillToolName = "load_skill"

// LoadSkillTool returns the full instructions of a discovered skill.
type LoadSkillTool struct {
	registry    *skills.Registry
	skillsDir   string
	description string
}

// LoadSkillInput defines the input parameters for the load_skill tool
type LoadSkillInput struct {
	SkillName string `json:"skill_name" jsonschema:"description=Name of the skill to load"`
}

// LoadSkillToolResult carries the rendered skill document or the not-found message.
type LoadSkillToolResult struct {
	skillName string
	output    string
	found     bool
	metadata  tooltypes.LoadSkillMetadata
}

// NewLoadSkillTool creates the loader. skillsDir is the skills root as it
// should appear in script paths, relative to the project root (e.g. "SKILLS").
// The description is rendered here, once, from the registry.
func NewLoadSkillTool(registry *skills.Registry, skillsDir string) *LoadSkillTool {
	if skillsDir == "" {
		skillsDir = "SKILLS"
	}
	return &LoadSkillTool{
		registry:    registry,
		skillsDir:   filepath.ToSlash(skillsDir),
		description: RenderLoadSkillDescription(registry),
	}
}

// RenderLoadSkillDescription lists the available skills for the tool
// description.
func RenderLoadSkillDescription(registry *skills.Registry) string {
	var sb strings.Builder
	sb.WriteString("Load a specialized skill with its full context and instructions.\n\nAvailable skills:\n")

	if registry.Len() == 0 {
		sb.WriteString("(No skills found)\n")
	}
	for _, skill := range registry.Skills() {
		fmt.Fprintf(&sb, "- %s: %s\n", skill.Name, skill.Description)
	}

	sb.WriteString("\nReturns the skill's full documentation including usage instructions.")
	return sb.String()
}

func (t *LoadSkillTool) Name() string {
	return LoadSkillToolName
}

func (t *LoadSkillTool) Description() string {
	return t.description
}

func (t *LoadSkillTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[LoadSkillInput]()
}

func (t *LoadSkillTool) ValidateInput(parameters string) error {
	var input LoadSkillInput
	if err := decodeInput(parameters, &input); err != nil {
		return err
	}
	if strings.TrimSpace(input.SkillName) == "" {
		return errors.New("skill_name is required")
	}
	return nil
}

func (t *LoadSkillTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input LoadSkillInput
	if err := decodeInput(parameters, &input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("skill_name", input.SkillName),
	}, nil
}

func (t *LoadSkillTool) Execute(_ context.Context, parameters string) tooltypes.ToolResult {
	var input LoadSkillInput
	if err := decodeInput(parameters, &input); err != nil {
		return tooltypes.BaseToolResult{ToolName: LoadSkillToolName, Error: err.Error()}
	}
	return t.Load(strings.TrimSpace(input.SkillName))
}

// Load renders the named skill. Unknown names produce an error result that
// lists every registered skill so the model can retry.
func (t *LoadSkillTool) Load(name string) *LoadSkillToolResult {
	skill, ok := t.registry.Get(name)
	if !ok {
		available := t.registry.Names()
		list := strings.Join(available, ", ")
		if list == "" {
			list = "(none)"
		}
		return &LoadSkillToolResult{
			skillName: name,
			output:    fmt.Sprintf("Error: Skill '%s' not found. Available skills: %s", name, list),
			metadata: tooltypes.LoadSkillMetadata{
				SkillName:       name,
				AvailableSkills: available,
			},
		}
	}

	return &LoadSkillToolResult{
		skillName: name,
		output:    t.render(skill),
		found:     true,
		metadata: tooltypes.LoadSkillMetadata{
			SkillName:      name,
			Directory:      skill.Directory,
			Found:          true,
			Scripts:        skill.Scripts,
			MissingScripts: skill.MissingScripts(),
		},
	}
}

func (t *LoadSkillTool) render(skill skills.Skill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Skill: %s\n\n%s\n\n---\n**Important Notes:**\n", skill.Name, skill.Content)
	fmt.Fprintf(&sb, "- Script paths are relative to project root: `%s/<skill-name>/scripts/<script>`\n", t.skillsDir)
	fmt.Fprintf(&sb, "- Execute using: `%s/<skill-name>/scripts/<script> <args>`\n", t.skillsDir)
	sb.WriteString("- The `output` directory is at project root level\n")
	sb.WriteString("- When reading files in `output/`, use: `output/filename.md` (relative to project root)\n")

	if len(skill.Scripts) > 0 {
		sb.WriteString("- Scripts in this skill:\n")
		for _, script := range skill.Scripts {
			fmt.Fprintf(&sb, "  - `%s`\n", t.scriptPath(skill, script))
		}
	}
	if missing := skill.MissingScripts(); len(missing) > 0 {
		sb.WriteString("- Referenced in the instructions but missing from scripts/:\n")
		for _, script := range missing {
			fmt.Fprintf(&sb, "  - `%s`\n", t.scriptPath(skill, script))
		}
	}

	return sb.String()
}

func (t *LoadSkillTool) scriptPath(skill skills.Skill, script string) string {
	return path.Join(t.skillsDir, filepath.Base(skill.Directory), "scripts", filepath.ToSlash(script))
}

func (r *LoadSkillToolResult) AssistantFacing() string { return r.output }

func (r *LoadSkillToolResult) UserFacing() string {
	if !r.found {
		return r.output
	}
	return "Loaded skill " + r.skillName
}

func (r *LoadSkillToolResult) IsError() bool { return !r.found }

func (r *LoadSkillToolResult) GetError() string {
	if r.found {
		return ""
	}
	return r.output
}

func (r *LoadSkillToolResult) GetResult() string {
	if !r.found {
		return ""
	}
	return r.output
}

func (r *LoadSkillToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  LoadSkillToolName,
		Success:   r.found,
		Error:     r.GetError(),
		Metadata:  r.metadata,
		Timestamp: time.Now(),
	}
}
