package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tmc/langchaingo/llms"
)

// AnthropicModel adapts the Anthropic Messages API to llms.Model.
// The SDK's retry loop is disabled: a failed call surfaces immediately.
type AnthropicModel struct {
	client anthropic.Client
	cfg    Config
}

var _ llms.Model = (*AnthropicModel)(nil)

// NewAnthropicModel creates the adapter.
func NewAnthropicModel(cfg Config) *AnthropicModel {
	cfg = cfg.withDefaults()
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(cfg.HTTPClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicModel{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

// GenerateContent sends one Messages request.
func (m *AnthropicModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	settings := resolveCallSettings(m.cfg, options)
	system, turns := flattenMessages(messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(settings.model),
		MaxTokens:   int64(settings.maxTokens),
		Temperature: anthropic.Float(settings.temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(settings.stop) > 0 {
		params.StopSequences = settings.stop
	}
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.text)
		if t.role == llms.ChatMessageTypeAI {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	return singleChoice(text.String(), string(msg.StopReason),
		int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)), nil
}

// Call implements the single-prompt form of llms.Model.
func (m *AnthropicModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
