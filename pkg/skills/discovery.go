package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/pkg/errors"
)

// ErrDuplicateSkill is returned in strict mode when two directories resolve
// to the same skill name.
var ErrDuplicateSkill = errors.New("duplicate skill name")

// Discovery scans a skills root directory. Each immediate subdirectory is
// parsed as a skill, in lexicographic order of directory names.
type Discovery struct {
	root        string
	allowed     []string
	strictNames bool
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithAllowlist restricts the registry to the named skills. An empty list
// keeps every discovered skill.
func WithAllowlist(names ...string) Option {
	return func(d *Discovery) error {
		d.allowed = names
		return nil
	}
}

// WithStrictNames makes a name collision between two skill directories fail
// discovery instead of letting the later directory win.
func WithStrictNames() Option {
	return func(d *Discovery) error {
		d.strictNames = true
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance for root
func NewDiscovery(root string, opts ...Option) (*Discovery, error) {
	if root == "" {
		return nil, errors.New("skills root directory is required")
	}

	d := &Discovery{root: root}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Discover is a shorthand for NewDiscovery followed by Discovery.Discover.
func Discover(ctx context.Context, root string, opts ...Option) (*Registry, error) {
	d, err := NewDiscovery(root, opts...)
	if err != nil {
		return nil, err
	}
	return d.Discover(ctx)
}

// Discover builds the registry. A missing root yields an empty registry.
// Skills that fail to parse are logged, recorded in Registry.Warnings and
// left out; they never abort the scan.
func (d *Discovery) Discover(ctx context.Context) (*Registry, error) {
	log := logger.G(ctx).WithField("skills_dir", d.root)

	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("skills directory does not exist, no skills loaded")
			return NewRegistry(), nil
		}
		log.WithError(err).Warn("failed to read skills directory, no skills loaded")
		return newRegistry(nil, multierror.Append(nil, err)), nil
	}

	var warnings *multierror.Error
	skills := make(map[string]*Skill)

	// os.ReadDir returns entries sorted by filename, which makes collision
	// handling reproducible.
	for _, entry := range entries {
		entryPath := filepath.Join(d.root, entry.Name())

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		skill, err := Parse(entryPath)
		if err != nil {
			log.WithError(err).WithField("skill_dir", entry.Name()).Warn("failed to parse skill, skipping")
			warnings = multierror.Append(warnings, err)
			continue
		}
		if skill == nil {
			continue
		}

		if existing, exists := skills[skill.Name]; exists {
			if d.strictNames {
				return nil, errors.Wrapf(ErrDuplicateSkill, "%q is defined in both %s and %s",
					skill.Name, existing.Directory, skill.Directory)
			}
			log.WithField("skill", skill.Name).
				WithField("previous", existing.Directory).
				WithField("replacement", skill.Directory).
				Warn("duplicate skill name, later directory wins")
		}
		skills[skill.Name] = skill
	}

	skills = FilterByAllowlist(skills, d.allowed)
	log.WithField("count", len(skills)).Debug("discovered skills")

	return newRegistry(skills, warnings.ErrorOrNil()), nil
}

// FilterByAllowlist filters skills by an allowlist of names
// If the allowlist is empty, all skills are returned
func FilterByAllowlist(skills map[string]*Skill, allowed []string) map[string]*Skill {
	if len(allowed) == 0 {
		return skills
	}

	filtered := make(map[string]*Skill)
	for _, name := range allowed {
		if skill, exists := skills[name]; exists {
			filtered[name] = skill
		}
	}
	return filtered
}
