package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

func mockAnthropicServer(t *testing.T, status int, body string, captured *map[string]interface{}) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("path = %s, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

const anthropicOK = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-latest",
  "content": [{"type": "text", "text": "Short summary."}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 20, "output_tokens": 4}
}`

func TestAnthropicModel_GenerateContent(t *testing.T) {
	var req map[string]interface{}
	server, _ := mockAnthropicServer(t, http.StatusOK, anthropicOK, &req)

	m := NewAnthropicModel(Config{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL, MaxTokens: 300})
	resp, err := m.GenerateContent(testContext(t), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "Be brief."),
		llms.TextParts(llms.ChatMessageTypeHuman, "Summarize this."),
	})
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	if resp.Choices[0].Content != "Short summary." {
		t.Errorf("Content = %q", resp.Choices[0].Content)
	}
	if resp.Choices[0].StopReason != "end_turn" {
		t.Errorf("StopReason = %q", resp.Choices[0].StopReason)
	}
	if req["model"] != "claude-3-5-haiku-latest" {
		t.Errorf("request model = %v", req["model"])
	}
	if req["max_tokens"] != float64(300) {
		t.Errorf("request max_tokens = %v", req["max_tokens"])
	}
	msgs, _ := req["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Errorf("request messages = %v, want one user message", req["messages"])
	}
	if _, ok := req["system"]; !ok {
		t.Error("system prompt not sent")
	}
}

func TestAnthropicModel_ErrorNotRetried(t *testing.T) {
	body := `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`
	server, hits := mockAnthropicServer(t, 529, body, nil)

	m := NewAnthropicModel(Config{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL})
	if _, err := m.Call(testContext(t), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (retries disabled)", hits.Load())
	}
}
