package presenter

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresenter(input string) (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return NewWithOptions(&output, &errorOutput, strings.NewReader(input), ColorNever), &output, &errorOutput
}

func TestNew(t *testing.T) {
	p := New()
	assert.Equal(t, os.Stdout, p.output)
	assert.Equal(t, os.Stderr, p.errorOutput)
	assert.False(t, p.quiet)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name     string
		noColor  string
		envColor string
		expected ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"always", "", "always", ColorAlways},
		{"force", "", "force", ColorAlways},
		{"never", "", "never", ColorNever},
		{"off", "", "off", ColorNever},
		{"auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid", "", "sometimes", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv(ColorEnv, tt.envColor)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestError(t *testing.T) {
	p, output, errorOutput := newTestPresenter("")

	p.Error(errors.New("test error"), "test context")
	assert.Equal(t, "[ERROR] test context: test error\n", errorOutput.String())

	errorOutput.Reset()
	p.Error(errors.New("bare"), "")
	assert.Equal(t, "[ERROR] bare\n", errorOutput.String())

	errorOutput.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errorOutput.String())
	assert.Empty(t, output.String())
}

func TestMessages(t *testing.T) {
	p, output, _ := newTestPresenter("")

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Available Skills")
	p.Separator()
	p.Stats(llmtypes.Usage{InputTokens: 10, OutputTokens: 5})

	assert.Equal(t, "✓ done\n"+
		"⚠ careful\n"+
		"plain\n"+
		"Available Skills\n----------------\n"+
		strings.Repeat("=", 70)+"\n"+
		"[Usage Stats] Input tokens: 10 | Output tokens: 5 | Total: 15\n", output.String())
}

func TestQuiet(t *testing.T) {
	p, output, errorOutput := newTestPresenter("")
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("x")
	p.Warning("x")
	p.Info("x")
	p.Section("x")
	p.Separator()
	p.Stats(llmtypes.Usage{})
	assert.Empty(t, output.String())

	p.Error(errors.New("still shown"), "")
	assert.Contains(t, errorOutput.String(), "still shown")
}

func TestReadLine(t *testing.T) {
	p, output, _ := newTestPresenter("first question\r\nsecond\nlast without newline")

	line, err := p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "first question", line)

	line, err = p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	line, err = p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last without newline", line)

	_, err = p.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > > ", output.String())
}

func TestReadLineWithoutInput(t *testing.T) {
	var output bytes.Buffer
	p := NewWithOptions(&output, io.Discard, nil, ColorNever)
	_, err := p.ReadLine("? ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestDefaultPresenter(t *testing.T) {
	p, output, _ := newTestPresenter("")
	previous := defaultPresenter
	SetDefault(p)
	defer SetDefault(previous)

	Info("via default")
	SetQuiet(true)
	assert.True(t, IsQuiet())
	Info("hidden")
	assert.Equal(t, "via default\n", output.String())
}
