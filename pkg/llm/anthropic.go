package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const defaultAnthropicModel = "claude-sonnet-4-0"

// AnthropicProvider talks to the Anthropic messages API.
type AnthropicProvider struct {
	client anthropic.Client
	config llmtypes.Config
}

// NewAnthropicProvider creates a provider for the anthropic backend.
func NewAnthropicProvider(config llmtypes.Config) *AnthropicProvider {
	config = ApplyDefaults(config)

	// retries are handled by withRetry so they follow the configured policy
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

func (p *AnthropicProvider) Name() string { return p.config.Provider }
func (p *AnthropicProvider) Model() string { return p.config.Model }

// Stream sends one messages request and streams the reply.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request, handler llmtypes.StreamHandler) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		Messages:  ToAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = ToAnthropicTools(req.Tools)
	}

	ctx, span := telemetry.Tracer("skillrunner.llm").Start(ctx, "llm.anthropic.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.config.Provider),
		attribute.String("model", p.config.Model),
		attribute.Int("messages", len(params.Messages)),
	)

	var response Response
	streamed := false
	trackingHandler := &streamTracker{next: handler, streamed: &streamed}

	err := withRetry(ctx, p.config.Provider, p.config.Retry,
		func(err error) bool { return !streamed && isAnthropicRetryableError(err) },
		func() error {
			var streamErr error
			response, streamErr = p.stream(ctx, params, trackingHandler)
			return streamErr
		})
	if err != nil {
		span.RecordError(err)
		return Response{}, errors.Wrapf(err, "failed to call %s model %s", p.config.Provider, p.config.Model)
	}

	span.SetAttributes(
		attribute.Int("input_tokens", response.Usage.InputTokens),
		attribute.Int("output_tokens", response.Usage.OutputTokens),
		attribute.String("stop_reason", response.StopReason),
	)
	return response, nil
}

func (p *AnthropicProvider) stream(ctx context.Context, params anthropic.MessageNewParams, handler llmtypes.StreamHandler) (Response, error) {
	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var content strings.Builder
	var toolArgsJSON strings.Builder
	var currentToolCall *llmtypes.ToolCall
	var usage llmtypes.Usage
	var stopReason string

	message := llmtypes.Message{Role: llmtypes.RoleAssistant}

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			usage.InputTokens = int(event.Message.Usage.InputTokens)

		case "content_block_start":
			cb := event.ContentBlock
			if cb.Type == "tool_use" {
				currentToolCall = &llmtypes.ToolCall{ID: cb.ID, Name: cb.Name}
				toolArgsJSON.Reset()
			}

		case "content_block_delta":
			delta := event.Delta
			switch delta.Type {
			case "text_delta":
				content.WriteString(delta.Text)
				handler.HandleTextDelta(delta.Text)
			case "thinking_delta":
				handler.HandleThinkingDelta(delta.Thinking)
			case "input_json_delta":
				toolArgsJSON.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if currentToolCall != nil {
				currentToolCall.Arguments = toolArgsJSON.String()
				if strings.TrimSpace(currentToolCall.Arguments) == "" {
					currentToolCall.Arguments = "{}"
				}
				message.ToolCalls = append(message.ToolCalls, *currentToolCall)
				currentToolCall = nil
			}

		case "message_delta":
			usage.OutputTokens = int(event.Usage.OutputTokens)
			if event.Delta.StopReason != "" {
				stopReason = string(event.Delta.StopReason)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return Response{}, err
	}

	message.Content = content.String()
	return Response{
		Message:    message,
		Usage:      usage,
		StopReason: stopReason,
	}, nil
}

// ToAnthropicMessages converts a conversation into Anthropic message params.
// Consecutive tool results are sent together in one user message.
func ToAnthropicMessages(messages []llmtypes.Message) []anthropic.MessageParam {
	var result []anthropic.MessageParam
	var toolResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(toolResults) > 0 {
			result = append(result, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case llmtypes.RoleTool:
			toolResults = append(toolResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		case llmtypes.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				var input any
				if err := json.Unmarshal([]byte(call.Arguments), &input); err != nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			flush()
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	flush()

	return result
}

// ToAnthropicTools converts tools into Anthropic tool params.
func ToAnthropicTools(tools []tooltypes.Tool) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		anthropicTools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.GenerateSchema().Properties,
				},
			},
		}
	}
	return anthropicTools
}

func isAnthropicRetryableError(err error) bool {
	if err == nil || isContextError(err) {
		return false
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}
