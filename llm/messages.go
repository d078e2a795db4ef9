package llm

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// turn is one flattened chat message.
type turn struct {
	role llms.ChatMessageType
	text string
}

// flattenMessages splits langchaingo messages into a system prompt and
// user/assistant turns, keeping only text parts.
func flattenMessages(messages []llms.MessageContent) (string, []turn) {
	var system []string
	var turns []turn
	for _, msg := range messages {
		text := messageText(msg)
		if text == "" {
			continue
		}
		if msg.Role == llms.ChatMessageTypeSystem {
			system = append(system, text)
			continue
		}
		role := llms.ChatMessageTypeHuman
		if msg.Role == llms.ChatMessageTypeAI {
			role = llms.ChatMessageTypeAI
		}
		turns = append(turns, turn{role: role, text: text})
	}
	return strings.Join(system, "\n\n"), turns
}

func messageText(msg llms.MessageContent) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// callSettings are the effective per-call parameters after applying options
// over the session defaults.
type callSettings struct {
	model       string
	maxTokens   int
	temperature float64
	stop        []string
}

func resolveCallSettings(cfg Config, options []llms.CallOption) callSettings {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	s := callSettings{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		stop:        opts.StopWords,
	}
	if opts.Model != "" {
		s.model = opts.Model
	}
	if opts.MaxTokens > 0 {
		s.maxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		s.temperature = opts.Temperature
	}
	return s
}

func singleChoice(content, stopReason string, promptTokens, completionTokens int) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    content,
			StopReason: stopReason,
			GenerationInfo: map[string]any{
				"PromptTokens":     promptTokens,
				"CompletionTokens": completionTokens,
				"TotalTokens":      promptTokens + completionTokens,
			},
		}},
	}
}
