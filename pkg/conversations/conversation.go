// Package conversations persists chat sessions so they can be listed,
// inspected and resumed.
package conversations

import (
	"strings"
	"time"

	"github.com/google/uuid"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
)

const firstMessageMaxLen = 100

// Record is a stored conversation.
type Record struct {
	ID          string
	Provider    string
	Model       string
	Messages    []llmtypes.Message
	ToolResults map[string]tooltypes.StructuredToolResult // keyed by tool call ID
	Usage       llmtypes.Usage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is the listing view of a Record.
type Summary struct {
	ID           string         `json:"id"`
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	FirstMessage string         `json:"first_message"`
	MessageCount int            `json:"message_count"`
	Usage        llmtypes.Usage `json:"usage"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewRecord starts an empty conversation with a fresh ID.
func NewRecord(provider, model string) Record {
	now := time.Now()
	return Record{
		ID:          uuid.New().String(),
		Provider:    provider,
		Model:       model,
		ToolResults: map[string]tooltypes.StructuredToolResult{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FirstMessage returns the first user message, shortened for listings.
func (r Record) FirstMessage() string {
	for _, msg := range r.Messages {
		if msg.Role != llmtypes.RoleUser {
			continue
		}
		text := strings.Join(strings.Fields(msg.Content), " ")
		if runes := []rune(text); len(runes) > firstMessageMaxLen {
			return string(runes[:firstMessageMaxLen]) + "..."
		}
		return text
	}
	return ""
}

// ToSummary builds the listing view of r.
func (r Record) ToSummary() Summary {
	return Summary{
		ID:           r.ID,
		Provider:     r.Provider,
		Model:        r.Model,
		FirstMessage: r.FirstMessage(),
		MessageCount: len(r.Messages),
		Usage:        r.Usage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
