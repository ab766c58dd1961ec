package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// GeminiProvider uses the Google Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(ProviderGemini)
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   resolveModel(cfg.Model, "gemini-flash", geminiModels),
		timeout: cfg.timeout(),
	}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	temp := float32(Temperature)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: MaxTokens,
		Temperature:     &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}},
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("HTTP %d: %w", apiErr.Code, err)
		}
		return "", &ErrProviderCall{Provider: ProviderGemini, Err: err}
	}
	if len(result.Candidates) == 0 {
		return "", &ErrMalformedResponse{Provider: ProviderGemini, Err: errors.New("no candidates in response")}
	}

	raw := result.Text()
	slog.Debug("LLM response", "provider", ProviderGemini, "raw", raw)
	if strings.TrimSpace(raw) == "" {
		return "", &ErrMalformedResponse{Provider: ProviderGemini, Err: errors.New("empty candidate text")}
	}
	return raw, nil
}
