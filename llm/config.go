// Package llm connects the summarizer to hosted language models.
//
// Every provider is adapted to langchaingo's llms.Model so the same
// stuff and map-reduce chains drive all of them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartsummarizer/core"

	"github.com/tmc/langchaingo/llms"
)

// Supported providers.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Provider base URLs used when Config.BaseURL is empty.
const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

var (
	// ErrUnknownProvider is returned for a provider name NewModel does not know.
	ErrUnknownProvider = errors.New("unknown LLM provider")

	// ErrEmptyResponse is returned when the provider answered with no text.
	ErrEmptyResponse = errors.New("LLM returned an empty response")
)

var defaultModels = map[string]string{
	ProviderGroq:      "llama3-8b-8192",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

// Config describes one LLM session. It is passed explicitly to NewModel; the
// package keeps no global client or credential.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64

	// HTTPClient carries timeouts and TLS settings. Nil uses a 120s client.
	HTTPClient *http.Client
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

// FromCoreConfig builds a session config from application configuration.
// The credential is resolved from LLM_API_KEY or the provider-specific variable.
func FromCoreConfig(cfg *core.Config) Config {
	return Config{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.ResolveAPIKey(),
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		HTTPClient:  core.GetHTTPClient(cfg, cfg.LLMTimeout),
	}
}

// WithAPIKey returns a copy of c using key when key is non-empty.
// The web page uses it for per-request credentials.
func (c Config) WithAPIKey(key string) Config {
	if key = strings.TrimSpace(key); key != "" {
		c.APIKey = key
	}
	return c
}

// Validate checks the provider and the credential. A missing credential is a
// core.ConfigError with code MISSING_AUTH.
func (c Config) Validate() error {
	if _, ok := defaultModels[strings.ToLower(strings.TrimSpace(c.Provider))]; !ok {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, c.Provider, strings.Join(Providers(), ", "))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return core.ErrMissingAuth(c.Provider)
	}
	return nil
}

// withDefaults fills model, base URL, token limit and HTTP client.
func (c Config) withDefaults() Config {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case ProviderGroq:
			c.BaseURL = GroqBaseURL
		case ProviderOpenAI:
			c.BaseURL = OpenAIBaseURL
		}
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return c
}

// Fingerprint identifies the settings that change a summary, for cache keys.
// The credential is not part of it.
func (c Config) Fingerprint() string {
	d := c.withDefaults()
	return fmt.Sprintf("%s|%s|%d|%.2f", d.Provider, d.Model, d.MaxTokens, d.Temperature)
}

// ResolvedModel returns the model name NewModel will use.
func (c Config) ResolvedModel() string {
	return c.withDefaults().Model
}

// NewModel validates cfg and returns the provider adapter.
//
// Example:
//
//	model, err := llm.NewModel(ctx, llm.Config{Provider: "groq", APIKey: key})
//	if err != nil {
//	    return err // core.ConfigError when the key is missing
//	}
func NewModel(ctx context.Context, cfg Config) (llms.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	switch cfg.Provider {
	case ProviderGroq, ProviderOpenAI:
		return NewOpenAIModel(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicModel(cfg), nil
	case ProviderGemini:
		return NewGeminiModel(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}
