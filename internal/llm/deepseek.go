package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DeepSeekBaseURL is the default DeepSeek API endpoint.
const DeepSeekBaseURL = "https://api.deepseek.com"

const deepSeekModel = "deepseek-chat"

// DeepSeekProvider talks to DeepSeek's OpenAI-compatible chat completions
// endpoint. Any other OpenAI-compatible server works through BaseURL.
type DeepSeekProvider struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewDeepSeekProvider creates a DeepSeek provider.
func NewDeepSeekProvider(cfg Config) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(ProviderDeepSeek)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DeepSeekBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = deepSeekModel
	}

	return &DeepSeekProvider{
		api:     openai.NewClientWithConfig(config),
		model:   model,
		timeout: cfg.timeout(),
	}, nil
}

func (p *DeepSeekProvider) Name() string { return ProviderDeepSeek }

// Generate issues one chat completion and returns the first choice's text.
func (p *DeepSeekProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		if isDecodeError(err) {
			return "", &ErrMalformedResponse{Provider: ProviderDeepSeek, Err: err}
		}
		return "", &ErrProviderCall{Provider: ProviderDeepSeek, Err: describeOpenAIError(err)}
	}

	if len(resp.Choices) == 0 {
		return "", &ErrMalformedResponse{Provider: ProviderDeepSeek, Err: errors.New("no choices in response")}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "provider", ProviderDeepSeek, "raw", raw)
	if strings.TrimSpace(raw) == "" {
		return "", &ErrMalformedResponse{Provider: ProviderDeepSeek, Err: errors.New("empty message content")}
	}
	return raw, nil
}

func describeOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("HTTP %d: %w", apiErr.HTTPStatusCode, err)
	}
	return err
}

// isDecodeError reports whether err came from decoding a 2xx body that was
// not a chat completion.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
