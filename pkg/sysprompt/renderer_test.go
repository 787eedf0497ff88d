package sysprompt

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/skills"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	registry := skills.NewRegistry(
		&skills.Skill{Name: "week-weather-export", Description: "Export the weekly weather forecast"},
		&skills.Skill{Name: "schedule-table-export", Description: "Export a day's schedule as a table"},
	)

	expected := "You are a helpful assistant." +
		"\n\nYou have access to specialized skills:\n" +
		"  - schedule-table-export: Export a day's schedule as a table\n" +
		"  - week-weather-export: Export the weekly weather forecast\n" +
		"\nUse the load_skill tool to load a skill when you need specialized knowledge or capabilities for these tasks."

	assert.Equal(t, expected, Render(DefaultBasePrompt, registry))
}

func TestRenderWithoutSkills(t *testing.T) {
	assert.Equal(t, DefaultBasePrompt, Render(DefaultBasePrompt, skills.NewRegistry()))
	assert.Equal(t, DefaultBasePrompt, Render(DefaultBasePrompt, nil))
}

func TestRenderIsPure(t *testing.T) {
	registry := skills.NewRegistry(&skills.Skill{Name: "a", Description: "first"})
	assert.Equal(t, Render("base", registry), Render("base", registry))
}

func TestRendererWithTemplateOverride(t *testing.T) {
	renderer := NewRendererWithTemplateOverride(TemplateFS, map[string]string{
		SystemTemplate: "{{ .Base }} ({{ len .Skills }} skills)",
	})

	prompt, err := renderer.RenderSystemPrompt("Hi.", skills.NewRegistry(&skills.Skill{Name: "a"}))
	require.NoError(t, err)
	assert.Equal(t, "Hi. (1 skills)", prompt)
}

func TestRendererErrors(t *testing.T) {
	renderer := NewRenderer(fstest.MapFS{
		"templates/system.tmpl": {Data: []byte("{{ .Base ")},
	})
	_, err := renderer.RenderSystemPrompt("x", nil)
	assert.ErrorContains(t, err, "failed to initialize templates")

	_, err = NewRenderer(TemplateFS).RenderPrompt("templates/missing.tmpl", &PromptContext{})
	assert.EqualError(t, err, "template templates/missing.tmpl not found")
}

func TestRenderFallsBackToBase(t *testing.T) {
	hook := test.NewLocal(logger.L.Logger)
	t.Cleanup(func() { logger.L.Logger.ReplaceHooks(make(logrus.LevelHooks)) })

	registry := skills.NewRegistry(&skills.Skill{Name: "a", Description: "first"})
	broken := NewRendererWithTemplateOverride(TemplateFS, map[string]string{
		SystemTemplate: "{{ .Base }}{{ .NoSuchField }}",
	})
	assert.Equal(t, "Base.", broken.renderOrBase("Base.", registry))

	unparsable := NewRenderer(fstest.MapFS{
		"templates/system.tmpl": {Data: []byte("{{ .Base ")},
	})
	assert.Equal(t, "Base.", unparsable.renderOrBase("Base.", registry))

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "failed to render system prompt, using the base prompt", hook.LastEntry().Message)
}

func TestNewRendererFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .Base }}{{ range .Skills }} [{{ .Name }}]{{ end }}"), 0o644))

	renderer, err := NewRendererFromFile(path)
	require.NoError(t, err)

	prompt, err := renderer.RenderSystemPrompt("Base.", skills.NewRegistry(&skills.Skill{Name: "x"}, &skills.Skill{Name: "y"}))
	require.NoError(t, err)
	assert.Equal(t, "Base. [x] [y]", prompt)

	_, err = NewRendererFromFile(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(bad, []byte("{{ if }}"), 0o644))
	_, err = NewRendererFromFile(bad)
	assert.Error(t, err)
}
