// Package llm talks to the model backends. Every backend is exposed through
// the same streaming Provider interface so the agent loop does not care
// whether it is driving a local ollama model or a hosted API.
package llm

import (
	"context"
	"os"
	"strings"

	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	tooltypes "github.com/jingkaihe/skillrunner/pkg/types/tools"
	"github.com/pkg/errors"
)

// Request is one model call: the system prompt, the conversation so far and
// the tools the model may call.
type Request struct {
	System   string
	Messages []llmtypes.Message
	Tools    []tooltypes.Tool
}

// Response is the assistant message produced by one model call.
type Response struct {
	Message    llmtypes.Message
	Usage      llmtypes.Usage
	StopReason string
}

// Provider is a model backend.
type Provider interface {
	Name() string
	Model() string
	// Stream sends req and reports text deltas to handler as they arrive.
	// The returned response holds the complete assistant message.
	Stream(ctx context.Context, req Request, handler llmtypes.StreamHandler) (Response, error)
}

// NewProvider creates the provider selected by config.Provider.
func NewProvider(config llmtypes.Config) (Provider, error) {
	config = ApplyDefaults(config)

	switch config.Provider {
	case llmtypes.ProviderOllama:
		return NewOpenAIProvider(config), nil
	case llmtypes.ProviderOpenAI:
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if config.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY environment variable or api_key is required for the openai provider")
		}
		return NewOpenAIProvider(config), nil
	case llmtypes.ProviderAnthropic:
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if config.APIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY environment variable or api_key is required for the anthropic provider")
		}
		return NewAnthropicProvider(config), nil
	default:
		return nil, errors.Errorf("unknown LLM provider: %s. Use 'ollama', 'openai' or 'anthropic'", config.Provider)
	}
}

// ApplyDefaults fills unset fields with provider specific defaults.
func ApplyDefaults(config llmtypes.Config) llmtypes.Config {
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Provider == "" {
		config.Provider = llmtypes.DefaultProvider
	}

	if config.Model == "" {
		switch config.Provider {
		case llmtypes.ProviderOpenAI:
			config.Model = defaultOpenAIModel
		case llmtypes.ProviderAnthropic:
			config.Model = defaultAnthropicModel
		default:
			config.Model = llmtypes.DefaultModel
		}
	}
	if config.Provider == llmtypes.ProviderOllama && config.BaseURL == "" {
		config.BaseURL = llmtypes.DefaultOllamaBaseURL
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = llmtypes.DefaultMaxTokens
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = llmtypes.DefaultMaxIterations
	}
	if config.Retry.Attempts == 0 {
		config.Retry = llmtypes.DefaultRetryConfig
	}

	return config
}
