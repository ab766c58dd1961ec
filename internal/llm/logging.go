package llm

import (
	"context"
	"log/slog"
	"time"
)

// LoggingProvider records latency and outcome of every Generate call.
type LoggingProvider struct {
	inner  Provider
	logger *slog.Logger
}

// WithLogging wraps p. A nil logger uses slog.Default at call time.
func WithLogging(p Provider, logger *slog.Logger) Provider {
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Name() string { return l.inner.Name() }

func (l *LoggingProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	text, err := l.inner.Generate(ctx, systemPrompt, userPrompt)
	latency := time.Since(start)

	if err != nil {
		logger.Warn("LLM request failed",
			"provider", l.inner.Name(),
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return "", err
	}
	logger.Info("LLM request completed",
		"provider", l.inner.Name(),
		"latency_ms", latency.Milliseconds(),
		"prompt_chars", len(systemPrompt)+len(userPrompt),
		"response_chars", len(text),
	)
	return text, nil
}
