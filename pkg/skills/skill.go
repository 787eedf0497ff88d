// Package skills discovers packaged agent skills on disk. A skill is a
// directory holding a SKILL.md manifest (YAML frontmatter plus a markdown
// body of instructions) and, optionally, a scripts/ directory of helpers the
// model can run through the command dispatcher.
//
// Discovery happens once at process start and yields an immutable Registry
// that is shared read-only by every capability built on top of it.
package skills

import "slices"

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name        string   // Unique name from frontmatter, or the directory name
	Description string   // Brief description for model decision-making
	Directory   string   // Full path to the skill directory
	ScriptsDir  string   // Full path to scripts/, empty when the skill has none
	Scripts     []string // Files under scripts/, relative to ScriptsDir, sorted
	References  []string // Scripts mentioned in code spans/blocks of Content
	Content     string   // Body of SKILL.md without the frontmatter
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// HasScripts reports whether the skill ships a scripts/ directory.
func (s Skill) HasScripts() bool {
	return s.ScriptsDir != ""
}

// MissingScripts returns the scripts referenced by the instructions that do
// not exist under scripts/.
func (s Skill) MissingScripts() []string {
	var missing []string
	for _, ref := range s.References {
		if !slices.Contains(s.Scripts, ref) {
			missing = append(missing, ref)
		}
	}
	return missing
}

func (s *Skill) clone() Skill {
	c := *s
	c.Scripts = slices.Clone(s.Scripts)
	c.References = slices.Clone(s.References)
	return c
}
