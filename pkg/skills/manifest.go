package skills

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the fixed name of the manifest inside a skill directory.
	ManifestFileName = "SKILL.md"

	scriptsDirName       = "scripts"
	frontmatterDelimiter = "---"
)

var (
	// ErrMalformedManifest is returned when SKILL.md does not start with a
	// frontmatter delimiter or has no closing delimiter.
	ErrMalformedManifest = errors.New("malformed skill manifest")
	// ErrInvalidFrontmatter is returned when the frontmatter is not a valid
	// YAML mapping.
	ErrInvalidFrontmatter = errors.New("invalid skill frontmatter")
)

// Parse reads the skill in dir. It returns (nil, nil) when dir has no
// SKILL.md, meaning the directory simply is not a skill.
func Parse(dir string) (*Skill, error) {
	manifestPath := filepath.Join(dir, ManifestFileName)
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", manifestPath)
	}

	frontmatter, body, err := splitManifest(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", manifestPath)
	}

	meta, err := parseFrontmatter(frontmatter, filepath.Base(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", manifestPath)
	}

	skill := &Skill{
		Name:        meta.Name,
		Description: meta.Description,
		Directory:   dir,
		Content:     strings.TrimSpace(body),
	}

	scriptsDir := filepath.Join(dir, scriptsDirName)
	if info, err := os.Stat(scriptsDir); err == nil && info.IsDir() {
		skill.ScriptsDir = scriptsDir
		skill.Scripts, err = listScripts(scriptsDir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list scripts of %s", dir)
		}
	}
	skill.References = ReferencedScripts(skill.Content, filepath.Base(dir))

	return skill, nil
}

// splitManifest splits content on the first two delimiters into frontmatter
// and body. Anything before the first delimiter must be empty.
func splitManifest(content string) (frontmatter, body string, err error) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return "", "", errors.Wrap(ErrMalformedManifest, "content must start with "+frontmatterDelimiter)
	}

	parts := strings.SplitN(content, frontmatterDelimiter, 3)
	if len(parts) < 3 {
		return "", "", errors.Wrap(ErrMalformedManifest, "missing closing "+frontmatterDelimiter)
	}

	return parts[1], parts[2], nil
}

// parseFrontmatter decodes the YAML block and resolves defaults. Values that
// are not strings (e.g. `name: 42`) are stringified.
func parseFrontmatter(frontmatter, dirName string) (Metadata, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(frontmatter)), &raw); err != nil {
		return Metadata{}, errors.Wrapf(ErrInvalidFrontmatter, "%v", err)
	}

	meta := Metadata{
		Name:        stringValue(raw["name"]),
		Description: stringValue(raw["description"]),
	}
	if meta.Name == "" {
		meta.Name = dirName
	}

	return meta, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return fmt.Sprint(val)
	}
}

func listScripts(scriptsDir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(scriptsDir), "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	scripts := make([]string, 0, len(matches))
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), ".") {
			continue
		}
		scripts = append(scripts, filepath.FromSlash(match))
	}
	slices.Sort(scripts)
	return scripts, nil
}
