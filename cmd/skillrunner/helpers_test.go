package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/skillrunner/pkg/llm"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (context.Context, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return logger.WithLogger(context.Background(), logrus.NewEntry(log)), hook
}

// setViper sets key for the duration of the test.
func setViper(t *testing.T, key string, value any) {
	t.Helper()
	previous := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, previous) })
}

// testProject creates a project root with a SKILLS directory holding the
// given SKILL.md contents keyed by directory name.
func testProject(t *testing.T, manifests map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for dir, content := range manifests {
		skillDir := filepath.Join(root, DefaultSkillsDir, dir)
		require.NoError(t, os.MkdirAll(skillDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
	}
	setViper(t, "project_root", root)
	setViper(t, "skills.dir", DefaultSkillsDir)
	return root
}

const scheduleManifest = `---
name: schedule-table-export
description: Export a day's schedule as a table
---

# Schedule export

Run ` + "`scripts/export_schedule.sh today`" + `.
`

// scriptedProvider replays canned responses.
type scriptedProvider struct {
	responses []llm.Response
	calls     int
	lastReq   llm.Request
}

func (p *scriptedProvider) Name() string  { return "fake" }
func (p *scriptedProvider) Model() string { return "fake-model" }

func (p *scriptedProvider) Stream(_ context.Context, req llm.Request, _ llmtypes.StreamHandler) (llm.Response, error) {
	p.calls++
	p.lastReq = req
	if len(p.responses) == 0 {
		return llm.Response{
			Message: llmtypes.Message{Role: llmtypes.RoleAssistant, Content: "done"},
			Usage:   llmtypes.Usage{InputTokens: 10, OutputTokens: 2},
		}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}
