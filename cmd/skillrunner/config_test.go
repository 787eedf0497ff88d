package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	root := testProject(t, nil)

	config, err := loadAppConfig()
	require.NoError(t, err)

	assert.Equal(t, root, config.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "SKILLS"), config.SkillsDir)
	assert.Equal(t, "SKILLS", config.SkillsDisplayDir)
	assert.Equal(t, dispatch.DefaultTimeout, config.Dispatch.Timeout)
	assert.Equal(t, root, config.Dispatch.ProjectRoot)
	assert.Equal(t, dispatch.DefaultMaxOutputSize, config.Dispatch.MaxOutputSize)
	assert.Equal(t, "python3", config.Dispatch.Python)
	assert.True(t, config.Persist)
}

func TestLoadAppConfigOverrides(t *testing.T) {
	root := testProject(t, nil)
	abs := filepath.Join(root, "custom", "skills")

	setViper(t, "skills.dir", abs)
	setViper(t, "skills.allowed", []string{"a", "b"})
	setViper(t, "skills.strict_names", true)
	setViper(t, "execute.timeout", "5s")
	setViper(t, "execute.allowed_commands", []string{"ls *"})
	setViper(t, "conversation.persist", false)

	config, err := loadAppConfig()
	require.NoError(t, err)

	assert.Equal(t, abs, config.SkillsDir)
	assert.Equal(t, "custom/skills", config.SkillsDisplayDir)
	assert.Equal(t, []string{"a", "b"}, config.SkillsAllowed)
	assert.True(t, config.StrictNames)
	assert.Equal(t, 5*time.Second, config.Dispatch.Timeout)
	assert.Equal(t, []string{"ls *"}, config.Dispatch.AllowedCommands)
	assert.False(t, config.Persist)
}

func TestLoadAppConfigRejectsNonPositiveTimeout(t *testing.T) {
	testProject(t, nil)
	setViper(t, "execute.timeout", "0s")

	_, err := loadAppConfig()
	assert.Error(t, err)
}

func TestLogDefaults(t *testing.T) {
	t.Setenv("SKILLRUNNER_LOG_LEVEL", "")

	assert.Equal(t, "warn", viper.GetString("log_level"))
	assert.Equal(t, "text", viper.GetString("log_format"))
	assert.Equal(t, "warn", rootCmd.PersistentFlags().Lookup("log-level").DefValue)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "BASE_URL", envKey("base_url"))
	assert.Equal(t, "SKILLS_DIR", envKey("skills.dir"))
}

func TestNewAppWiresTools(t *testing.T) {
	testProject(t, map[string]string{"schedule": scheduleManifest})
	ctx, _ := testContext(t)

	a, err := loadApp(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"schedule-table-export"}, a.skills.Names())
	assert.Equal(t, []string{"execute_command", "load_skill"}, a.tools.Names())

	prompt, err := a.systemPrompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, "You are a helpful assistant.")
	assert.Contains(t, prompt, "  - schedule-table-export: Export a day's schedule as a table")
}
