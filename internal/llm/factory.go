package llm

import (
	"context"
	"fmt"
)

// MockExplanation is the text returned by the "mock" provider.
const MockExplanation = "This is a canned explanation from the mock provider."

// NewProvider creates the provider selected by cfg.Provider, wrapped with
// logging. A missing credential yields *ErrMissingAPIKey.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderDeepSeek
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderDeepSeek:
		base, err = NewDeepSeekProvider(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	case ProviderMock:
		base = NewMockProvider(MockExplanation)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, nil), nil
}
