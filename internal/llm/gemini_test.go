package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/watchdog/internal/model"
)

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models/gemini-1.5-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "g-key" {
			t.Errorf("Expected key query parameter, got %q", r.URL.RawQuery)
		}

		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		text := req.Contents[0].Parts[0].Text
		if !strings.HasPrefix(text, SystemPrompt(model.DomainHealth)) || !strings.HasSuffix(text, "User: Is aspirin safe?") {
			t.Errorf("Unexpected prompt text %q", text)
		}
		if req.GenerationConfig.MaxOutputTokens != 500 {
			t.Errorf("Expected 500 max tokens, got %d", req.GenerationConfig.MaxOutputTokens)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Consult a doctor."}]}}],"usageMetadata":{"totalTokenCount":12}}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "g-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), Request{Prompt: "Is aspirin safe?", Domain: model.DomainHealth})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != "Consult a doctor." || resp.TokensUsed != 12 || resp.Model != GeminiModel {
		t.Errorf("Unexpected response %+v", resp)
	}
}

func TestGeminiProvider_Generate_Errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"malformed", http.StatusOK, `{oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, _ := NewGeminiProvider(Config{APIKey: "k", BaseURL: server.URL})
			if _, err := provider.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	if _, err := NewGeminiProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}
