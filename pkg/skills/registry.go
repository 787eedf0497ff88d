package skills

import (
	"slices"
	"sort"
)

// Registry is the immutable catalog of discovered skills keyed by name. It is
// built once and never mutated, so it can be shared across goroutines
// without locking. A nil *Registry behaves like an empty one.
type Registry struct {
	skills   map[string]*Skill
	names    []string
	warnings error
}

// NewRegistry builds a registry from already parsed skills. When two skills
// share a name the later one wins.
func NewRegistry(skills ...*Skill) *Registry {
	m := make(map[string]*Skill, len(skills))
	for _, s := range skills {
		if s == nil || s.Name == "" {
			continue
		}
		m[s.Name] = s
	}
	return newRegistry(m, nil)
}

func newRegistry(skills map[string]*Skill, warnings error) *Registry {
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	if skills == nil {
		skills = map[string]*Skill{}
	}

	return &Registry{
		skills:   skills,
		names:    names,
		warnings: warnings,
	}
}

// Get returns a copy of the named skill.
func (r *Registry) Get(name string) (Skill, bool) {
	if r == nil {
		return Skill{}, false
	}
	s, ok := r.skills[name]
	if !ok {
		return Skill{}, false
	}
	return s.clone(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.skills[name]
	return ok
}

// Names returns the registered skill names in lexicographic order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}

// Skills returns copies of all skills ordered by name.
func (r *Registry) Skills() []Skill {
	if r == nil {
		return nil
	}
	out := make([]Skill, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.skills[name].clone())
	}
	return out
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Warnings returns the non-fatal problems found during discovery, or nil.
func (r *Registry) Warnings() error {
	if r == nil {
		return nil
	}
	return r.warnings
}
