package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/dispatch"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultSkillsDir is the skills root, relative to the project root.
const DefaultSkillsDir = "SKILLS"

// AppConfig holds everything outside the model configuration.
type AppConfig struct {
	ProjectRoot string
	SkillsDir   string
	// SkillsDisplayDir is SkillsDir as shown to the model, relative to the
	// project root when possible.
	SkillsDisplayDir string
	SkillsAllowed    []string
	StrictNames      bool
	Dispatch         dispatch.Options
	Persist          bool
	SystemPrompt     string
	TemplatePath     string
}

func setDefaults() {
	viper.SetDefault("skills.dir", DefaultSkillsDir)
	viper.SetDefault("skills.strict_names", false)
	viper.SetDefault("execute.timeout", dispatch.DefaultTimeout)
	viper.SetDefault("execute.max_output_size", dispatch.DefaultMaxOutputSize)
	viper.SetDefault("execute.python", dispatch.DefaultPython)
	viper.SetDefault("conversation.persist", true)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.sampler", "ratio")
	viper.SetDefault("tracing.ratio", 1.0)
}

func envKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// loadAppConfig reads the application configuration from viper and
// resolves paths.
func loadAppConfig() (*AppConfig, error) {
	root := viper.GetString("project_root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine project root")
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve project root %s", root)
	}

	skillsDir := viper.GetString("skills.dir")
	if skillsDir == "" {
		skillsDir = DefaultSkillsDir
	}
	display := skillsDir
	if !filepath.IsAbs(skillsDir) {
		skillsDir = filepath.Join(root, skillsDir)
	} else if rel, err := filepath.Rel(root, skillsDir); err == nil && !strings.HasPrefix(rel, "..") {
		display = rel
	}

	timeout := viper.GetDuration("execute.timeout")
	if timeout <= 0 {
		return nil, errors.Errorf("execute.timeout must be positive, got %s", viper.GetString("execute.timeout"))
	}

	return &AppConfig{
		ProjectRoot:      root,
		SkillsDir:        filepath.Clean(skillsDir),
		SkillsDisplayDir: filepath.ToSlash(filepath.Clean(display)),
		SkillsAllowed:    viper.GetStringSlice("skills.allowed"),
		StrictNames:      viper.GetBool("skills.strict_names"),
		Dispatch: dispatch.Options{
			Timeout:         timeout,
			ProjectRoot:     root,
			Python:          viper.GetString("execute.python"),
			Shell:           viper.GetString("execute.shell"),
			MaxOutputSize:   viper.GetInt("execute.max_output_size"),
			AllowedCommands: viper.GetStringSlice("execute.allowed_commands"),
		},
		Persist:      viper.GetBool("conversation.persist"),
		SystemPrompt: viper.GetString("system_prompt"),
		TemplatePath: viper.GetString("system_prompt_template"),
	}, nil
}

// durationFlagSeconds converts a --timeout style flag given in seconds.
func durationFlagSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
