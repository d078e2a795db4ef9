package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func TestGeminiModel_GenerateContent(t *testing.T) {
	var req map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
		  "candidates": [{
		    "content": {"role": "model", "parts": [{"text": "Gemini "}, {"text": "summary."}]},
		    "finishReason": "STOP"
		  }],
		  "usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 3, "totalTokenCount": 12}
		}`))
	}))
	defer server.Close()

	m, err := NewGeminiModel(testContext(t), Config{Provider: "gemini", APIKey: "test-key", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewGeminiModel() error = %v", err)
	}

	resp, err := m.GenerateContent(testContext(t), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "Summarize this."),
	}, llms.WithMaxTokens(128))
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if resp.Choices[0].Content != "Gemini summary." {
		t.Errorf("Content = %q", resp.Choices[0].Content)
	}
	if resp.Choices[0].StopReason != "STOP" {
		t.Errorf("StopReason = %q", resp.Choices[0].StopReason)
	}
	if resp.Choices[0].GenerationInfo["PromptTokens"] != 9 {
		t.Errorf("PromptTokens = %v", resp.Choices[0].GenerationInfo["PromptTokens"])
	}

	cfg, _ := req["generationConfig"].(map[string]interface{})
	if cfg["maxOutputTokens"] != float64(128) {
		t.Errorf("maxOutputTokens = %v, want 128", cfg["maxOutputTokens"])
	}
}

func TestGeminiModel_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	m, err := NewGeminiModel(testContext(t), Config{Provider: "gemini", APIKey: "test-key", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewGeminiModel() error = %v", err)
	}
	if _, err := m.Call(testContext(t), "hello"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
