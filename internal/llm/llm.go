// Package llm generates natural-language explanations through
// interchangeable chat-completion providers.
package llm

import (
	"context"
	"time"
)

// Provider generates text from a system instruction and a user prompt.
// Implementations hold only immutable configuration and are safe for
// concurrent use.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name identifies the provider in logs, e.g. "deepseek".
	Name() string
}

// Sampling parameters shared by every provider.
const (
	Temperature    = 0.7
	MaxTokens      = 500
	DefaultTimeout = 30 * time.Second
)

// Provider names accepted by NewProvider.
const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Config holds everything needed to construct a provider. Credentials are
// resolved by the caller; nothing in this package reads the environment.
type Config struct {
	// Provider selects the implementation. Default: "deepseek".
	Provider string
	APIKey   string
	// BaseURL overrides the provider's endpoint.
	BaseURL string
	// Model overrides the provider's default model. Friendly aliases such
	// as "claude-haiku" are resolved per provider.
	Model string
	// Timeout bounds a single Generate call. Default: 30s.
	Timeout time.Duration
}

// DefaultConfig returns a Config for the default provider without a
// credential.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderDeepSeek,
		Timeout:  DefaultTimeout,
	}
}

// EnvVar returns the conventional environment variable holding the API key
// for provider, or "" for providers that need none.
func EnvVar(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name, fallback string, models map[string]string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
