package main

import (
	"context"

	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/skills"
	"github.com/jingkaihe/skillrunner/pkg/sysprompt"
	"github.com/jingkaihe/skillrunner/pkg/tools"
	"github.com/pkg/errors"
)

// app is the wired core shared by every command that talks to the model or
// runs capabilities.
type app struct {
	config     *AppConfig
	skills     *skills.Registry
	dispatcher *dispatch.Dispatcher
	tools      *tools.Registry
}

func newApp(ctx context.Context, config *AppConfig) (*app, error) {
	var opts []skills.Option
	if len(config.SkillsAllowed) > 0 {
		opts = append(opts, skills.WithAllowlist(config.SkillsAllowed...))
	}
	if config.StrictNames {
		opts = append(opts, skills.WithStrictNames())
	}

	registry, err := skills.Discover(ctx, config.SkillsDir, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover skills")
	}

	dispatcher, err := dispatch.New(config.Dispatch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create command dispatcher")
	}

	toolRegistry, err := tools.NewRegistry(
		tools.NewLoadSkillTool(registry, config.SkillsDisplayDir),
		tools.NewExecuteCommandTool(dispatcher),
	)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).
		WithField("skills", registry.Len()).
		WithField("project_root", config.ProjectRoot).
		Debug("initialized skill runner")

	return &app{
		config:     config,
		skills:     registry,
		dispatcher: dispatcher,
		tools:      toolRegistry,
	}, nil
}

// loadApp is loadAppConfig followed by newApp.
func loadApp(ctx context.Context) (*app, error) {
	config, err := loadAppConfig()
	if err != nil {
		return nil, err
	}
	return newApp(ctx, config)
}

// systemPrompt renders the system prompt, from the configured template file
// when one is set.
func (a *app) systemPrompt() (string, error) {
	base := a.config.SystemPrompt
	if base == "" {
		base = sysprompt.DefaultBasePrompt
	}
	if a.config.TemplatePath == "" {
		return sysprompt.Render(base, a.skills), nil
	}

	renderer, err := sysprompt.NewRendererFromFile(a.config.TemplatePath)
	if err != nil {
		return "", err
	}
	return renderer.RenderSystemPrompt(base, a.skills)
}
