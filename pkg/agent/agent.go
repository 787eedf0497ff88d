// Package agent runs the tool calling loop for one user turn: the model is
// called, every tool call it makes is executed in order, the observations
// are fed back, and the loop repeats until the model answers in plain text.
package agent

import (
	"context"

	"github.com/jingkaihe/skillrunner/pkg/llm"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	"github.com/jingkaihe/skillrunner/pkg/tools"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ErrMaxIterations is returned when the model keeps calling tools after the
// iteration limit.
var ErrMaxIterations = errors.New("reached the maximum number of iterations")

// CancelledToolResult is the observation recorded for tool calls skipped
// because the turn was cancelled.
const CancelledToolResult = "Error: cancelled before execution"

var tracer = telemetry.Tracer("skillrunner.agent")

// ToolResultObserver is called after every tool call with the structured
// result, keyed by the tool call ID.
type ToolResultObserver func(callID string, result tooltypes.StructuredToolResult)

// Agent drives one model provider with a fixed tool registry.
type Agent struct {
	provider      llm.Provider
	registry      *tools.Registry
	systemPrompt  string
	maxIterations int
	observer      ToolResultObserver
	usage         llmtypes.Usage
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations caps the model calls made for one user turn.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithToolResultObserver registers a callback for structured tool results.
func WithToolResultObserver(observer ToolResultObserver) Option {
	return func(a *Agent) {
		a.observer = observer
	}
}

// New creates an agent.
func New(provider llm.Provider, registry *tools.Registry, systemPrompt string, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		registry:      registry,
		systemPrompt:  systemPrompt,
		maxIterations: llmtypes.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Usage returns the tokens used by every Run so far.
func (a *Agent) Usage() llmtypes.Usage {
	return a.usage
}

// SystemPrompt returns the system prompt sent with every request.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

// Run answers userInput given the conversation history. It returns the
// history extended with the user message, every assistant message and
// every tool observation of this turn. On error the messages gathered so
// far are still returned.
func (a *Agent) Run(ctx context.Context, history []llmtypes.Message, userInput string, handler llmtypes.MessageHandler) ([]llmtypes.Message, error) {
	ctx, span := tracer.Start(ctx, "agent.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", a.provider.Name()),
		attribute.String("model", a.provider.Model()),
		attribute.Int("history", len(history)),
	)

	log := logger.G(ctx).WithField("model", a.provider.Model())

	messages := make([]llmtypes.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llmtypes.UserMessage(userInput))

	defer handler.HandleDone()

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		resp, err := a.provider.Stream(ctx, llm.Request{
			System:   a.systemPrompt,
			Messages: messages,
			Tools:    a.registry.Tools(),
		}, handler)
		if err != nil {
			span.RecordError(err)
			return messages, err
		}

		a.usage.Add(resp.Usage)
		messages = append(messages, resp.Message)

		if resp.Message.Content != "" {
			handler.HandleText(resp.Message.Content)
		}

		log.WithField("iteration", iteration).
			WithField("tool_calls", len(resp.Message.ToolCalls)).
			WithField("stop_reason", resp.StopReason).
			Debug("model call finished")

		if len(resp.Message.ToolCalls) == 0 {
			span.SetAttributes(attribute.Int("iterations", iteration))
			return messages, nil
		}

		for i, call := range resp.Message.ToolCalls {
			if err := ctx.Err(); err != nil {
				for _, skipped := range resp.Message.ToolCalls[i:] {
					messages = append(messages, llmtypes.ToolResultMessage(skipped, CancelledToolResult))
				}
				span.RecordError(err)
				return messages, err
			}

			handler.HandleToolUse(call.Name, call.Arguments)
			result := a.registry.RunTool(ctx, call.Name, call.Arguments)
			handler.HandleToolResult(call.Name, result.UserFacing())

			if a.observer != nil {
				a.observer(call.ID, result.StructuredData())
			}
			messages = append(messages, llmtypes.ToolResultMessage(call, result.AssistantFacing()))
		}
	}

	log.WithField("max_iterations", a.maxIterations).Warn("stopping agent loop")
	span.RecordError(ErrMaxIterations)
	return messages, errors.Wrapf(ErrMaxIterations, "stopped after %d iterations", a.maxIterations)
}
