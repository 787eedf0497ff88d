// Package sysprompt renders the system prompt that tells the model which
// skills exist and how to load them.
package sysprompt

import (
	"io/fs"
	"os"
	"strings"
	"text/template"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/skills"
	"github.com/pkg/errors"
)

// Renderer provides prompt template rendering capabilities
type Renderer struct {
	templates *template.Template
	parseErr  error
}

var defaultRenderer = NewRenderer(TemplateFS)

// NewRenderer creates a new template renderer
func NewRenderer(fs fs.FS) *Renderer {
	renderer := &Renderer{}
	renderer.templates, renderer.parseErr = parseTemplates(fs, nil)
	return renderer
}

// NewRendererWithTemplateOverride creates a renderer with custom template overrides.
// Overrides are keyed by template path (e.g., templates/system.tmpl).
func NewRendererWithTemplateOverride(fs fs.FS, overrides map[string]string) *Renderer {
	renderer := &Renderer{}
	renderer.templates, renderer.parseErr = parseTemplates(fs, overrides)
	return renderer
}

// NewRendererFromFile creates a renderer whose system template is read from
// path instead of the embedded one.
func NewRendererFromFile(path string) (*Renderer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read system prompt template %s", path)
	}
	renderer := NewRendererWithTemplateOverride(TemplateFS, map[string]string{SystemTemplate: string(content)})
	if renderer.parseErr != nil {
		return nil, renderer.parseErr
	}
	return renderer, nil
}

// RenderPrompt renders a named template with the provided context
func (r *Renderer) RenderPrompt(name string, ctx *PromptContext) (string, error) {
	if r.parseErr != nil {
		return "", errors.Wrap(r.parseErr, "failed to initialize templates")
	}

	if r.templates.Lookup(name) == nil {
		return "", errors.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, ctx); err != nil {
		return "", errors.Wrapf(err, "failed to execute template %s", name)
	}

	return buf.String(), nil
}

// RenderSystemPrompt renders the system prompt for base and registry.
func (r *Renderer) RenderSystemPrompt(base string, registry *skills.Registry) (string, error) {
	return r.RenderPrompt(SystemTemplate, NewPromptContext(base, registry))
}

// Render returns the system prompt: base, then a summary of every skill and
// an instruction to load skills on demand. With no skills it returns base
// unchanged.
func Render(base string, registry *skills.Registry) string {
	return defaultRenderer.renderOrBase(base, registry)
}

// renderOrBase renders the system prompt, falling back to base alone when
// the template fails.
func (r *Renderer) renderOrBase(base string, registry *skills.Registry) string {
	prompt, err := r.RenderSystemPrompt(base, registry)
	if err != nil {
		logger.L.WithError(err).Error("failed to render system prompt, using the base prompt")
		return base
	}
	return prompt
}

func parseTemplates(templateFS fs.FS, overrides map[string]string) (*template.Template, error) {
	paths, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect template paths")
	}

	templates := template.New("templates")
	for _, path := range paths {
		content, ok := overrides[path]
		if !ok {
			bytes, err := fs.ReadFile(templateFS, path)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read template file %s", path)
			}
			content = string(bytes)
		}

		if _, err := templates.New(path).Parse(content); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", path)
		}
	}

	return templates, nil
}
