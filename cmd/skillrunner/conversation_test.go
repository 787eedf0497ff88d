package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/conversations"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (context.Context, *conversations.SQLiteStore) {
	t.Helper()
	ctx, _ := testContext(t)
	store, err := conversations.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ctx, store
}

func saveRecord(t *testing.T, ctx context.Context, store conversations.Store, first string) conversations.Record {
	t.Helper()
	record := conversations.NewRecord("ollama", "gpt-oss:20b")
	record.Messages = []llmtypes.Message{
		llmtypes.UserMessage(first),
		{Role: llmtypes.RoleAssistant, ToolCalls: []llmtypes.ToolCall{
			{ID: "call_1", Name: "load_skill", Arguments: `{"skill_name":"schedule-table-export"}`},
		}},
		{Role: llmtypes.RoleTool, ToolCallID: "call_1", ToolName: "load_skill", Content: "# Skill: schedule-table-export"},
		{Role: llmtypes.RoleAssistant, Content: "Here is your schedule."},
	}
	record.ToolResults["call_1"] = tooltypes.StructuredToolResult{
		ToolName:  "load_skill",
		Success:   false,
		Error:     "Skill 'schedule-table-export' not found",
		Timestamp: time.Now(),
	}
	require.NoError(t, store.Save(ctx, record))
	return record
}

func TestBuildQueryOptions(t *testing.T) {
	options, err := buildQueryOptions(&ConversationListConfig{
		StartDate: "2026-10-01",
		EndDate:   "2026-10-02",
		Search:    "schedule",
		Limit:     5,
		SortOrder: "asc",
	})
	require.NoError(t, err)

	assert.Equal(t, "schedule", options.SearchTerm)
	assert.Equal(t, 5, options.Limit)
	assert.Equal(t, "asc", options.SortOrder)
	require.NotNil(t, options.StartDate)
	require.NotNil(t, options.EndDate)
	assert.Equal(t, time.Date(2026, 10, 2, 23, 59, 59, 0, time.UTC), *options.EndDate)

	_, err = buildQueryOptions(&ConversationListConfig{StartDate: "yesterday"})
	assert.Error(t, err)
}

func TestListConversations(t *testing.T) {
	ctx, store := newTestStore(t)
	record := saveRecord(t, ctx, store, "export my schedule for today")
	saveRecord(t, ctx, store, "what is the weather next week")

	var out bytes.Buffer
	config := NewConversationListConfig()
	config.Search = "schedule"
	require.NoError(t, listConversations(ctx, &out, store, config))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], record.ID)
	assert.Contains(t, lines[1], "export my schedule for today")
}

func TestListConversationsEmpty(t *testing.T) {
	ctx, store := newTestStore(t)

	var out bytes.Buffer
	require.NoError(t, listConversations(ctx, &out, store, NewConversationListConfig()))
	assert.Equal(t, "No conversations found matching your criteria.\n", out.String())
}

func TestShowConversation(t *testing.T) {
	ctx, store := newTestStore(t)
	record := saveRecord(t, ctx, store, "export my schedule")

	var out bytes.Buffer
	require.NoError(t, showConversation(ctx, &out, store, record.ID, NewConversationShowConfig()))

	text := out.String()
	assert.Contains(t, text, "You: export my schedule\n")
	assert.Contains(t, text, `Tool call load_skill: {"skill_name":"schedule-table-export"}`)
	assert.Contains(t, text, "Assistant: Here is your schedule.\n")
	assert.NotContains(t, text, "# Skill: schedule-table-export", "tool results are rendered from structured data")

	out.Reset()
	require.NoError(t, showConversation(ctx, &out, store, record.ID, &ConversationShowConfig{Format: "json"}))
	assert.Contains(t, out.String(), `"tool_call_id": "call_1"`)

	assert.Error(t, showConversation(ctx, &out, store, record.ID, &ConversationShowConfig{Format: "xml"}))
	assert.ErrorIs(t, showConversation(ctx, &out, store, "missing", NewConversationShowConfig()), conversations.ErrNotFound)
}

func TestDeleteConversation(t *testing.T) {
	ctx, store := newTestStore(t)
	record := saveRecord(t, ctx, store, "export my schedule")

	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, &out, strings.NewReader("n\n"), presenter.ColorNever)
	require.NoError(t, deleteConversation(ctx, p, store, record.ID, NewConversationDeleteConfig()))
	assert.Contains(t, out.String(), "Deletion cancelled.")
	_, err := store.Load(ctx, record.ID)
	require.NoError(t, err)

	p = presenter.NewWithOptions(&out, &out, strings.NewReader("y\n"), presenter.ColorNever)
	require.NoError(t, deleteConversation(ctx, p, store, record.ID, NewConversationDeleteConfig()))
	_, err = store.Load(ctx, record.ID)
	assert.ErrorIs(t, err, conversations.ErrNotFound)

	assert.ErrorIs(t, deleteConversation(ctx, p, store, record.ID, &ConversationDeleteConfig{NoConfirm: true}), conversations.ErrNotFound)
}
