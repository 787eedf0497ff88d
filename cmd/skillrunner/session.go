package main

import (
	"context"
	"time"

	"github.com/jingkaihe/skillrunner/pkg/agent"
	"github.com/jingkaihe/skillrunner/pkg/conversations"
	"github.com/jingkaihe/skillrunner/pkg/llm"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
)

// session is one conversation: the agent, its history and, when
// persistence is on, the store the history is saved to after every turn.
type session struct {
	agent     *agent.Agent
	store     conversations.Store
	record    conversations.Record
	baseUsage llmtypes.Usage
}

type sessionOptions struct {
	maxIterations int
	store         conversations.Store
	resumeID      string
}

func newSession(ctx context.Context, a *app, provider llm.Provider, opts sessionOptions) (*session, error) {
	prompt, err := a.systemPrompt()
	if err != nil {
		return nil, err
	}

	s := &session{
		store:  opts.store,
		record: conversations.NewRecord(provider.Name(), provider.Model()),
	}

	if opts.resumeID != "" {
		if opts.store == nil {
			return nil, errors.New("resuming a conversation requires conversation persistence")
		}
		record, err := opts.store.Load(ctx, opts.resumeID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resume conversation %s", opts.resumeID)
		}
		if record.ToolResults == nil {
			record.ToolResults = map[string]tooltypes.StructuredToolResult{}
		}
		s.record = record
		s.baseUsage = record.Usage
		logger.G(ctx).WithField("conversation_id", record.ID).
			WithField("messages", len(record.Messages)).
			Info("resumed conversation")
	}

	s.agent = agent.New(provider, a.tools, prompt,
		agent.WithMaxIterations(opts.maxIterations),
		agent.WithToolResultObserver(func(callID string, result tooltypes.StructuredToolResult) {
			s.record.ToolResults[callID] = result
		}),
	)
	return s, nil
}

// ID is the conversation ID.
func (s *session) ID() string {
	return s.record.ID
}

// Ask runs one turn. The history is kept, and saved, even when the turn
// fails part way.
func (s *session) Ask(ctx context.Context, query string, handler llmtypes.MessageHandler) error {
	messages, runErr := s.agent.Run(ctx, s.record.Messages, query, handler)

	s.record.Messages = messages
	s.record.Usage = s.baseUsage
	s.record.Usage.Add(s.agent.Usage())
	s.record.UpdatedAt = time.Now()

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), s.record); err != nil {
			logger.G(ctx).WithError(err).WithField("conversation_id", s.record.ID).Warn("failed to save conversation")
		}
	}
	return runErr
}

// Usage is the token usage of the whole conversation.
func (s *session) Usage() llmtypes.Usage {
	return s.record.Usage
}

// openStore opens the conversation store when persistence is enabled.
func openStore(ctx context.Context, persist bool) (conversations.Store, error) {
	if !persist {
		return nil, nil
	}
	store, err := conversations.NewDefaultSQLiteStore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open conversation store")
	}
	return store, nil
}

// newProvider builds the model provider from configuration.
func newProvider() (llm.Provider, llmtypes.Config, error) {
	config, err := llm.GetConfigFromViper()
	if err != nil {
		return nil, config, err
	}
	provider, err := llm.NewProvider(config)
	if err != nil {
		return nil, config, err
	}
	return provider, config, nil
}
