package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

// OpenAIModel adapts an OpenAI-compatible chat completions API (OpenAI, Groq)
// to llms.Model.
type OpenAIModel struct {
	client *openai.Client
	cfg    Config
}

var _ llms.Model = (*OpenAIModel)(nil)

// NewOpenAIModel creates the adapter. cfg.BaseURL selects the endpoint.
func NewOpenAIModel(cfg Config) *OpenAIModel {
	cfg = cfg.withDefaults()
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = cfg.HTTPClient
	return &OpenAIModel{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

// GenerateContent sends one chat completion request.
func (m *OpenAIModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	settings := resolveCallSettings(m.cfg, options)
	system, turns := flattenMessages(messages)

	chat := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		chat = append(chat, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.role == llms.ChatMessageTypeAI {
			role = openai.ChatMessageRoleAssistant
		}
		chat = append(chat, openai.ChatCompletionMessage{Role: role, Content: t.text})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       settings.model,
		Messages:    chat,
		MaxTokens:   settings.maxTokens,
		Temperature: float32(settings.temperature),
		Stop:        settings.stop,
	})
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", m.cfg.Provider, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	return singleChoice(choice.Message.Content, string(choice.FinishReason),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens), nil
}

// Call implements the single-prompt form of llms.Model.
func (m *OpenAIModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
