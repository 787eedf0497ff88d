package sysprompt

import "github.com/jingkaihe/skillrunner/pkg/skills"

// SkillSummary is the part of a skill shown to the model up front.
type SkillSummary struct {
	Name        string
	Description string
}

// PromptContext holds the values available to the system prompt template.
type PromptContext struct {
	Base          string
	Skills        []SkillSummary
	LoadSkillTool string
}

// NewPromptContext builds the template context from a skill registry.
// Skills are listed in registry order.
func NewPromptContext(base string, registry *skills.Registry) *PromptContext {
	ctx := &PromptContext{
		Base:          base,
		LoadSkillTool: loadSkillToolName,
	}
	if registry == nil {
		return ctx
	}
	for _, skill := range registry.Skills() {
		ctx.Skills = append(ctx.Skills, SkillSummary{
			Name:        skill.Name,
			Description: skill.Description,
		})
	}
	return ctx
}
