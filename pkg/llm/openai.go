package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/telemetry"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultOpenAIModel = "gpt-4.1"
	// ollama ignores the key but the client always sends one.
	ollamaAPIKey = "ollama"
)

// OpenAIProvider speaks the chat completions API. It serves both the openai
// provider and ollama through its OpenAI compatible endpoint.
type OpenAIProvider struct {
	client *openai.Client
	config llmtypes.Config
}

// NewOpenAIProvider creates a provider for the openai or ollama backend.
func NewOpenAIProvider(config llmtypes.Config) *OpenAIProvider {
	config = ApplyDefaults(config)

	apiKey := config.APIKey
	if apiKey == "" && config.Provider == llmtypes.ProviderOllama {
		apiKey = ollamaAPIKey
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := openAIBaseURL(config); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// openAIBaseURL returns the chat completions base URL. ollama serves the
// OpenAI compatible API under /v1.
func openAIBaseURL(config llmtypes.Config) string {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return ""
	}
	if config.Provider == llmtypes.ProviderOllama && !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

func (p *OpenAIProvider) Name() string { return p.config.Provider }
func (p *OpenAIProvider) Model() string { return p.config.Model }

// Stream sends one chat completion request and streams the reply.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request, handler llmtypes.StreamHandler) (Response, error) {
	tools, err := ToOpenAITools(req.Tools)
	if err != nil {
		return Response{}, err
	}

	requestParams := openai.ChatCompletionRequest{
		Model:     p.config.Model,
		Messages:  ToOpenAIMessages(req.System, req.Messages),
		MaxTokens: p.config.MaxTokens,
	}
	if len(tools) > 0 {
		requestParams.Tools = tools
		requestParams.ToolChoice = "auto"
	}

	ctx, span := telemetry.Tracer("skillrunner.llm").Start(ctx, "llm.openai.stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.config.Provider),
		attribute.String("model", p.config.Model),
		attribute.Int("messages", len(requestParams.Messages)),
	)

	var response Response
	streamed := false
	trackingHandler := &streamTracker{next: handler, streamed: &streamed}

	err = withRetry(ctx, p.config.Provider, p.config.Retry,
		func(err error) bool { return !streamed && isOpenAIRetryableError(err) },
		func() error {
			var streamErr error
			response, streamErr = p.stream(ctx, requestParams, trackingHandler)
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

func (p *OpenAIProvider) stream(ctx context.Context, requestParams openai.ChatCompletionRequest, handler llmtypes.StreamHandler) (Response, error) {
	requestParams.Stream = true
	requestParams.StreamOptions = &openai.StreamOptions{
		IncludeUsage: true,
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, requestParams)
	if err != nil {
		return Response{}, err
	}
	defer stream.Close()

	var contentBuilder strings.Builder
	var toolCalls []openai.ToolCall
	var usage llmtypes.Usage
	var finishReason openai.FinishReason

	for {
		streamResponse, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Response{}, err
		}

		if streamResponse.Usage != nil {
			usage.InputTokens = streamResponse.Usage.PromptTokens
			usage.OutputTokens = streamResponse.Usage.CompletionTokens
		}

		for _, choice := range streamResponse.Choices {
			delta := choice.Delta

			if delta.Content != "" {
				handler.HandleTextDelta(delta.Content)
				contentBuilder.WriteString(delta.Content)
			}
			if delta.ReasoningContent != "" {
				handler.HandleThinkingDelta(delta.ReasoningContent)
			}

			for _, tc := range delta.ToolCalls {
				if tc.Index == nil {
					logger.G(ctx).WithFields(map[string]any{
						"tool_call_id":  tc.ID,
						"function_name": tc.Function.Name,
					}).Warn("received tool call delta with nil index, skipping")
					continue
				}
				idx := *tc.Index
				for len(toolCalls) <= idx {
					toolCalls = append(toolCalls, openai.ToolCall{})
				}
				if tc.ID != "" {
					toolCalls[idx].ID = tc.ID
				}
				if tc.Function.Name != "" {
					toolCalls[idx].Function.Name = tc.Function.Name
				}
				toolCalls[idx].Function.Arguments += tc.Function.Arguments
			}

			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}
	}

	message := llmtypes.Message{
		Role:    llmtypes.RoleAssistant,
		Content: contentBuilder.String(),
	}
	for _, tc := range toolCalls {
		if tc.Function.Name == "" {
			continue
		}
		message.ToolCalls = append(message.ToolCalls, llmtypes.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return Response{
		Message:    message,
		Usage:      usage,
		StopReason: string(finishReason),
	}, nil
}

// ToOpenAIMessages converts a conversation into chat completion messages,
// with the system prompt first.
func ToOpenAIMessages(system string, messages []llmtypes.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llmtypes.RoleAssistant:
			m := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			result = append(result, m)
		case llmtypes.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		default:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}
	return result
}

// ToOpenAITools converts tools into chat completion function definitions.
func ToOpenAITools(tools []tooltypes.Tool) ([]openai.Tool, error) {
	openaiTools := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		schemaBytes, err := json.Marshal(tool.GenerateSchema())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema for tool %s", tool.Name())
		}

		var parameters map[string]any
		if err := json.Unmarshal(schemaBytes, &parameters); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal schema for tool %s", tool.Name())
		}

		openaiTools = append(openaiTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  parameters,
			},
		})
	}
	return openaiTools, nil
}

func isOpenAIRetryableError(err error) bool {
	if err == nil || isContextError(err) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	return false
}

// streamTracker records whether any output reached the handler. A call that
// already streamed output is not retried.
type streamTracker struct {
	next     llmtypes.StreamHandler
	streamed *bool
}

func (s *streamTracker) HandleTextDelta(delta string) {
	*s.streamed = true
	if s.next != nil {
		s.next.HandleTextDelta(delta)
	}
}

func (s *streamTracker) HandleThinkingDelta(delta string) {
	*s.streamed = true
	if s.next != nil {
		s.next.HandleThinkingDelta(delta)
	}
}
