package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Chunk length units understood by the splitter.
const (
	LengthUnitChars  = "chars"
	LengthUnitTokens = "tokens"
)

// Config holds all configuration values.
//
// The LLM credential is deliberately optional here: the web page can supply
// one per session, and the missing-credential check happens when a session
// is built (see ResolveAPIKey).
type Config struct {
	// LLM collaborator
	LLMProvider    string        `env:"LLM_PROVIDER"    envDefault:"groq"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	GroqAPIKey     string        `env:"GROQ_API_KEY"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	AnthropicKey   string        `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	LLMModel       string        `env:"LLM_MODEL"`
	LLMBaseURL     string        `env:"LLM_BASE_URL"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS"  envDefault:"1024"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT"     envDefault:"120s"`
	PromptsFile    string        `env:"PROMPTS_FILE"`

	// Chunking and strategy selection
	ChunkSize       int    `env:"CHUNK_SIZE"        envDefault:"1000"`
	ChunkOverlap    int    `env:"CHUNK_OVERLAP"     envDefault:"100"`
	ChunkLengthUnit string `env:"CHUNK_LENGTH_UNIT" envDefault:"chars"`
	WordThreshold   int    `env:"WORD_THRESHOLD"    envDefault:"800"`

	// Web page
	Host               string `env:"HOST"                  envDefault:"localhost"`
	Port               int    `env:"PORT"                  envDefault:"8501"`
	WebUIPassword      string `env:"WEBUI_PASSWORD"`
	MaxUploadBytes     int64  `env:"MAX_UPLOAD_BYTES"      envDefault:"20971520"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// PDF input; 0 reads every page
	PDFMaxPages int `env:"PDF_MAX_PAGES" envDefault:"0"`

	// Summary cache
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"lru"`
	CacheSize    int           `env:"CACHE_SIZE"    envDefault:"256"`
	CacheTTL     time.Duration `env:"CACHE_TTL"     envDefault:"24h"`
	RedisURL     string        `env:"REDIS_URL"`

	// History
	// HistoryDB "none" disables history. HistoryRetention 0 keeps everything.
	HistoryDB        string        `env:"HISTORY_DB"        envDefault:"./data/summaries.db"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"`

	// Prometheus metrics on /metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Process
	LogFile              string `env:"LOG_FILE"                envDefault:"summarizer.log"`
	LogLevel             string `env:"LOG_LEVEL"`
	LogMaxSizeMB         int    `env:"LOG_MAX_SIZE_MB"         envDefault:"100"`
	LogMaxBackups        int    `env:"LOG_MAX_BACKUPS"         envDefault:"5"`
	LogMaxAgeDays        int    `env:"LOG_MAX_AGE_DAYS"        envDefault:"30"`
	LogCompress          bool   `env:"LOG_COMPRESS"            envDefault:"true"`
	DevMode              bool   `env:"DEV_MODE"                envDefault:"false"`
	AllowSelfSignedCerts bool   `env:"ALLOW_SELF_SIGNED_CERTS" envDefault:"false"`
}

// LoadDotEnv loads a .env file into the process environment.
// A missing file is reported as a ConfigError the caller may treat as a warning.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		path := ".env"
		if len(paths) > 0 {
			path = strings.Join(paths, ", ")
		}
		return ErrEnvFileMissing(path)
	}
	return nil
}

// LoadConfig parses configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.ChunkLengthUnit = strings.ToLower(strings.TrimSpace(cfg.ChunkLengthUnit))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the numeric invariants the summarizer relies on.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidConfig("CHUNK_SIZE", fmt.Sprintf("must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return ErrInvalidConfig("CHUNK_OVERLAP",
			fmt.Sprintf("must be in [0, CHUNK_SIZE), got %d with CHUNK_SIZE=%d", c.ChunkOverlap, c.ChunkSize))
	}
	if c.WordThreshold <= 0 {
		return ErrInvalidConfig("WORD_THRESHOLD", fmt.Sprintf("must be positive, got %d", c.WordThreshold))
	}
	switch c.ChunkLengthUnit {
	case LengthUnitChars, LengthUnitTokens:
	default:
		return ErrInvalidConfig("CHUNK_LENGTH_UNIT", fmt.Sprintf("must be %q or %q, got %q",
			LengthUnitChars, LengthUnitTokens, c.ChunkLengthUnit))
	}
	if c.LLMMaxTokens <= 0 {
		return ErrInvalidConfig("LLM_MAX_TOKENS", fmt.Sprintf("must be positive, got %d", c.LLMMaxTokens))
	}
	if c.PDFMaxPages < 0 {
		return ErrInvalidConfig("PDF_MAX_PAGES", fmt.Sprintf("must not be negative, got %d", c.PDFMaxPages))
	}
	if c.HistoryRetention < 0 {
		return ErrInvalidConfig("HISTORY_RETENTION", fmt.Sprintf("must not be negative, got %s", c.HistoryRetention))
	}
	if c.CacheBackend == "redis" && strings.TrimSpace(c.RedisURL) == "" {
		return ErrMissingConfig("REDIS_URL")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidConfig("PORT", fmt.Sprintf("must be a valid TCP port, got %d", c.Port))
	}
	return nil
}

// ResolveAPIKey returns the credential for the configured provider.
// LLM_API_KEY wins; otherwise the provider-specific variable is used.
func (c *Config) ResolveAPIKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	switch c.LLMProvider {
	case "groq":
		return c.GroqAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return ""
}

// Addr returns the host:port the web page listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetHTTPClient returns an HTTP client configured with TLS settings based on AllowSelfSignedCerts.
// This should be used for all HTTP requests to external APIs to ensure TLS configuration is respected
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
