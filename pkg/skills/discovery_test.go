package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (context.Context, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return logger.WithLogger(context.Background(), logrus.NewEntry(log)), hook
}

func warnMessages(hook *test.Hook) []string {
	var msgs []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			msgs = append(msgs, entry.Message)
		}
	}
	return msgs
}

func TestNewDiscovery(t *testing.T) {
	t.Run("requires a root", func(t *testing.T) {
		_, err := NewDiscovery("")
		assert.Error(t, err)
	})

	t.Run("applies options", func(t *testing.T) {
		d, err := NewDiscovery("/tmp/skills", WithAllowlist("a", "b"), WithStrictNames())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/skills", d.root)
		assert.Equal(t, []string{"a", "b"}, d.allowed)
		assert.True(t, d.strictNames)
	})
}

func TestDiscoverSkills(t *testing.T) {
	ctx, hook := testContext(t)
	tmpDir := t.TempDir()

	skill1Dir := writeSkill(t, tmpDir, "test-skill", `---
name: test-skill
description: A test skill for unit testing
---

# Test Skill

## Instructions
This is a test skill.
`)
	writeSkill(t, tmpDir, "another-skill", `---
name: another-skill
description: Another test skill
---

# Another Skill

Some content here.
`)
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "not-a-skill"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("# skills"), 0o644))

	registry, err := Discover(ctx, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []string{"another-skill", "test-skill"}, registry.Names())
	assert.NoError(t, registry.Warnings())
	assert.Empty(t, warnMessages(hook))

	testSkill, exists := registry.Get("test-skill")
	require.True(t, exists)
	assert.Equal(t, "A test skill for unit testing", testSkill.Description)
	assert.Equal(t, skill1Dir, testSkill.Directory)
	assert.Contains(t, testSkill.Content, "# Test Skill")
	assert.Contains(t, testSkill.Content, "This is a test skill.")

	_, exists = registry.Get("not-a-skill")
	assert.False(t, exists)
}

func TestDiscoverSkipsMalformedSkills(t *testing.T) {
	ctx, hook := testContext(t)
	tmpDir := t.TempDir()

	writeSkill(t, tmpDir, "a-broken", "# no frontmatter at all\n")
	writeSkill(t, tmpDir, "b-bad-yaml", "---\nname: [oops\n---\nbody\n")
	writeSkill(t, tmpDir, "c-good", "---\nname: good\ndescription: still found\n---\nbody\n")

	registry, err := Discover(ctx, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, registry.Names())

	require.Error(t, registry.Warnings())
	assert.Contains(t, registry.Warnings().Error(), "a-broken")
	assert.Contains(t, registry.Warnings().Error(), "b-bad-yaml")
	assert.Equal(t, []string{"failed to parse skill, skipping", "failed to parse skill, skipping"}, warnMessages(hook))
}

func TestDiscoverNameCollision(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "a-first", "---\nname: shared\ndescription: first\n---\nfirst body\n")
	secondDir := writeSkill(t, tmpDir, "b-second", "---\nname: shared\ndescription: second\n---\nsecond body\n")

	t.Run("later directory wins", func(t *testing.T) {
		ctx, hook := testContext(t)
		registry, err := Discover(ctx, tmpDir)
		require.NoError(t, err)
		require.Equal(t, 1, registry.Len())

		skill, ok := registry.Get("shared")
		require.True(t, ok)
		assert.Equal(t, "second", skill.Description)
		assert.Equal(t, secondDir, skill.Directory)
		assert.Equal(t, []string{"duplicate skill name, later directory wins"}, warnMessages(hook))
	})

	t.Run("strict names fail", func(t *testing.T) {
		ctx, _ := testContext(t)
		registry, err := Discover(ctx, tmpDir, WithStrictNames())
		require.Error(t, err)
		assert.Nil(t, registry)
		assert.True(t, errors.Is(err, ErrDuplicateSkill))
	})
}

func TestDiscoverWithAllowlist(t *testing.T) {
	ctx, _ := testContext(t)
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "one", "---\nname: one\n---\n")
	writeSkill(t, tmpDir, "two", "---\nname: two\n---\n")
	writeSkill(t, tmpDir, "three", "---\nname: three\n---\n")

	registry, err := Discover(ctx, tmpDir, WithAllowlist("three", "one", "missing"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, registry.Names())
}

func TestDiscoverSkillsWithSymlinks(t *testing.T) {
	ctx, _ := testContext(t)
	skillsDir := t.TempDir()
	external := t.TempDir()

	targetDir := writeSkill(t, external, "linked-skill", "---\nname: linked-skill\ndescription: lives elsewhere\n---\nLinked.\n")
	require.NoError(t, os.Symlink(targetDir, filepath.Join(skillsDir, "linked-skill")))

	registry, err := Discover(ctx, skillsDir)
	require.NoError(t, err)

	skill, ok := registry.Get("linked-skill")
	require.True(t, ok)
	assert.Equal(t, "lives elsewhere", skill.Description)
	assert.Equal(t, filepath.Join(skillsDir, "linked-skill"), skill.Directory)
}

func TestDiscoverIgnoresSymlinkToFileAndBrokenSymlink(t *testing.T) {
	ctx, hook := testContext(t)
	skillsDir := t.TempDir()

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.Symlink(file, filepath.Join(skillsDir, "file-link")))
	require.NoError(t, os.Symlink(filepath.Join(skillsDir, "nowhere"), filepath.Join(skillsDir, "broken-link")))

	registry, err := Discover(ctx, skillsDir)
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, warnMessages(hook))
}

func TestDiscoverMissingRoot(t *testing.T) {
	ctx, hook := testContext(t)

	registry, err := Discover(ctx, filepath.Join(t.TempDir(), "SKILLS"))
	require.NoError(t, err)
	require.NotNil(t, registry)
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.Names())
	assert.NoError(t, registry.Warnings())
	assert.Empty(t, warnMessages(hook))
}

func TestDiscoverRootIsFile(t *testing.T) {
	ctx, hook := testContext(t)
	file := filepath.Join(t.TempDir(), "SKILLS")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	registry, err := Discover(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Error(t, registry.Warnings())
	assert.Len(t, warnMessages(hook), 1)
}

func TestFilterByAllowlist(t *testing.T) {
	all := map[string]*Skill{
		"skill-a": {Name: "skill-a"},
		"skill-b": {Name: "skill-b"},
		"skill-c": {Name: "skill-c"},
	}

	t.Run("empty allowlist returns all", func(t *testing.T) {
		assert.Len(t, FilterByAllowlist(all, nil), 3)
	})

	t.Run("filters to allowed skills", func(t *testing.T) {
		filtered := FilterByAllowlist(all, []string{"skill-a", "skill-c"})
		assert.Len(t, filtered, 2)
		assert.Contains(t, filtered, "skill-a")
		assert.Contains(t, filtered, "skill-c")
		assert.NotContains(t, filtered, "skill-b")
	})
}
