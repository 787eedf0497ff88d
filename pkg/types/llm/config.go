// Package llm holds the provider-neutral types shared by the model
// providers, the agent loop and the conversation store.
package llm

// Provider names accepted in configuration.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults applied when configuration leaves a value unset.
const (
	DefaultProvider      = ProviderOllama
	DefaultModel         = "gpt-oss:20b"
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"
	DefaultMaxTokens     = 4096
	DefaultMaxIterations = 25
)

// Config holds the configuration for the LLM client
type Config struct {
	Provider      string      `mapstructure:"provider"`
	Model         string      `mapstructure:"model"`
	BaseURL       string      `mapstructure:"base_url"`
	APIKey        string      `mapstructure:"api_key"`
	MaxTokens     int         `mapstructure:"max_tokens"`
	MaxIterations int         `mapstructure:"max_iterations"`
	Retry         RetryConfig `mapstructure:"retry"`
}

// RetryConfig controls retries of failed model API calls. Delays are in
// milliseconds.
type RetryConfig struct {
	Attempts     int    `mapstructure:"attempts"`
	InitialDelay int    `mapstructure:"initial_delay"`
	MaxDelay     int    `mapstructure:"max_delay"`
	BackoffType  string `mapstructure:"backoff_type"` // "fixed" or "exponential"
}

// DefaultRetryConfig is used when no retry attempts are configured.
var DefaultRetryConfig = RetryConfig{
	Attempts:     3,
	InitialDelay: 1000,
	MaxDelay:     10000,
	BackoffType:  "exponential",
}
