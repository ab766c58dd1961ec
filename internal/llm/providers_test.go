package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeChatCompletion(w, "OpenAI says hi.")
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	text, err := p.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "OpenAI says hi." {
		t.Errorf("text = %q", text)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	_, err = p.Generate(context.Background(), "sys", "usr")
	var callErr *ErrProviderCall
	if !errors.As(err, &callErr) {
		t.Fatalf("expected ErrProviderCall, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	_, err = p.Generate(context.Background(), "sys", "usr")
	var malformed *ErrMalformedResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedResponse, got %T (%v)", err, err)
	}
}

func newTestGeminiProvider(t *testing.T, model string, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL, Model: model})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p
}

func TestGeminiProvider_HappyPath(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
		GenerationConfig struct {
			MaxOutputTokens int `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}

	p := newTestGeminiProvider(t, "gemini-pro", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": "Gemini explanation."}},
					},
					"finishReason": "STOP",
				},
			},
		})
	})

	text, err := p.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Gemini explanation." {
		t.Errorf("text = %q", text)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-2.5-pro:generateContent") {
		t.Errorf("path = %s", gotPath)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" ||
		len(gotBody.Contents[0].Parts) != 1 || gotBody.Contents[0].Parts[0].Text != "usr" {
		t.Errorf("contents = %+v", gotBody.Contents)
	}
	if len(gotBody.SystemInstruction.Parts) != 1 || gotBody.SystemInstruction.Parts[0].Text != "sys" {
		t.Errorf("systemInstruction = %+v", gotBody.SystemInstruction)
	}
	if gotBody.GenerationConfig.MaxOutputTokens != MaxTokens {
		t.Errorf("maxOutputTokens = %d", gotBody.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	p := newTestGeminiProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := p.Generate(context.Background(), "sys", "usr")
	var malformed *ErrMalformedResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedResponse, got %T (%v)", err, err)
	}
}

func TestGeminiProvider_ServerError(t *testing.T) {
	p := newTestGeminiProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	})

	_, err := p.Generate(context.Background(), "sys", "usr")
	var callErr *ErrProviderCall
	if !errors.As(err, &callErr) {
		t.Fatalf("expected ErrProviderCall, got %T (%v)", err, err)
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Anthropic explanation."},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	text, err := p.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Anthropic explanation." {
		t.Errorf("text = %q", text)
	}
}

func TestAnthropicProvider_NoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 0},
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	_, err = p.Generate(context.Background(), "sys", "usr")
	var malformed *ErrMalformedResponse
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedResponse, got %T (%v)", err, err)
	}
}

func TestModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		fallback string
		models   map[string]string
		want     string
	}{
		{"claude-haiku", "", anthropicModels, "claude-haiku-4-5-20251001"},
		{"", "claude-haiku", anthropicModels, "claude-haiku-4-5-20251001"},
		{"gemini-flash", "", geminiModels, "gemini-2.0-flash"},
		{"gemini-pro", "", geminiModels, "gemini-2.5-pro"},
		{"gemini-2.5-pro", "", geminiModels, "gemini-2.5-pro"},
		{"", "gpt-4o-mini", openaiModels, "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, tt.fallback, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.input, tt.fallback, got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"default without key", Config{}, "", true},
		{"deepseek", Config{Provider: ProviderDeepSeek, APIKey: "k"}, ProviderDeepSeek, false},
		{"openai", Config{Provider: ProviderOpenAI, APIKey: "k"}, ProviderOpenAI, false},
		{"anthropic", Config{Provider: ProviderAnthropic, APIKey: "k"}, ProviderAnthropic, false},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "", true},
		{"gemini without key", Config{Provider: ProviderGemini}, "", true},
		{"mock", Config{Provider: ProviderMock}, ProviderMock, false},
		{"unknown", Config{Provider: "llama", APIKey: "k"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewProviderMissingKeyIsTyped(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: ProviderOpenAI})
	var missing *ErrMissingAPIKey
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingAPIKey, got %T (%v)", err, err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the env var: %v", err)
	}
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider("Great job!")
	text, err := m.Generate(context.Background(), "s", "u")
	if err != nil || text != "Great job!" {
		t.Fatalf("Generate = %q, %v", text, err)
	}

	boom := errors.New("boom")
	f := NewFailingMockProvider(boom)
	if _, err := f.Generate(context.Background(), "s", "u"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	calls := m.Calls()
	if len(calls) != 1 || calls[0].System != "s" || calls[0].User != "u" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := WithLogging(NewMockProvider("ok"), logger)
	if p.Name() != ProviderMock {
		t.Errorf("Name() = %q", p.Name())
	}
	if _, err := p.Generate(context.Background(), "s", "u"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(buf.String(), "LLM request completed") {
		t.Errorf("missing completion log: %s", buf.String())
	}

	buf.Reset()
	failing := WithLogging(NewFailingMockProvider(errors.New("down")), logger)
	if _, err := failing.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "LLM request failed") {
		t.Errorf("missing failure log: %s", buf.String())
	}
}
