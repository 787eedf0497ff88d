package sysprompt

import "embed"

//go:embed templates/*
var TemplateFS embed.FS

const (
	// SystemTemplate is the path of the embedded system prompt template.
	SystemTemplate = "templates/system.tmpl"

	// DefaultBasePrompt opens every system prompt.
	DefaultBasePrompt = "You are a helpful assistant."

	loadSkillToolName = "load_skill"
)
