package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// GeminiModel adapts the Gemini API to llms.Model.
type GeminiModel struct {
	client *genai.Client
	cfg    Config
}

var _ llms.Model = (*GeminiModel)(nil)

// NewGeminiModel creates the adapter. cfg.BaseURL overrides the API endpoint.
func NewGeminiModel(ctx context.Context, cfg Config) (*GeminiModel, error) {
	cfg = cfg.withDefaults()
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, cfg: cfg}, nil
}

// GenerateContent sends one generateContent request.
func (m *GeminiModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	settings := resolveCallSettings(m.cfg, options)
	system, turns := flattenMessages(messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.role == llms.ChatMessageTypeAI {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.text, role))
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(settings.maxTokens),
		Temperature:     genai.Ptr(float32(settings.temperature)),
		StopSequences:   settings.stop,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := m.client.Models.GenerateContent(ctx, settings.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return singleChoice(text.String(), string(candidate.FinishReason), promptTokens, completionTokens), nil
}

// Call implements the single-prompt form of llms.Model.
func (m *GeminiModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
