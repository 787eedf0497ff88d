package conversations

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord("ollama", "gpt-oss:20b")

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "ollama", r.Provider)
	assert.Equal(t, "gpt-oss:20b", r.Model)
	assert.NotNil(t, r.ToolResults)
	assert.False(t, r.CreatedAt.IsZero())
	assert.NotEqual(t, r.ID, NewRecord("ollama", "m").ID)
}

func TestFirstMessage(t *testing.T) {
	r := Record{Messages: []llmtypes.Message{
		{Role: llmtypes.RoleAssistant, Content: "hello"},
		llmtypes.UserMessage("  what is\nthe   weather?  "),
		llmtypes.UserMessage("second"),
	}}
	assert.Equal(t, "what is the weather?", r.FirstMessage())

	long := Record{Messages: []llmtypes.Message{llmtypes.UserMessage(strings.Repeat("é", 150))}}
	assert.Equal(t, strings.Repeat("é", 100)+"...", long.FirstMessage())

	assert.Empty(t, Record{}.FirstMessage())
}

func TestToSummary(t *testing.T) {
	r := NewRecord("anthropic", "claude")
	r.Messages = []llmtypes.Message{llmtypes.UserMessage("hi"), {Role: llmtypes.RoleAssistant, Content: "hey"}}
	r.Usage = llmtypes.Usage{InputTokens: 3, OutputTokens: 4}

	s := r.ToSummary()
	assert.Equal(t, r.ID, s.ID)
	assert.Equal(t, "hi", s.FirstMessage)
	assert.Equal(t, 2, s.MessageCount)
	assert.Equal(t, 7, s.Usage.TotalTokens())
}
