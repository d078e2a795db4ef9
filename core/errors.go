package core

import (
	"errors"
	"fmt"
	"strings"
)

// Codes carried by ConfigError. The web page maps them to statuses.
const (
	ErrCodeEnvFileMissing = "ENV_FILE_MISSING"
	ErrCodeMissingAuth    = "MISSING_AUTH"
	ErrCodeMissingConfig  = "MISSING_CONFIG"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
)

// ConfigError is a setup problem the user fixes, not a runtime failure.
// Action tells them how.
type ConfigError struct {
	Code    string
	Message string
	Action  string
}

func (e *ConfigError) Error() string {
	if e.Action == "" {
		return e.Message
	}
	return e.Message + ". " + e.Action
}

// Is matches any ConfigError with the same code, so callers can write
// errors.Is(err, &ConfigError{Code: ErrCodeMissingAuth}).
func (e *ConfigError) Is(target error) bool {
	var t *ConfigError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// providerKeyVars names the fallback variable for each provider.
var providerKeyVars = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ProviderKeyVar returns the provider-specific key variable, or "" when the
// provider has none.
func ProviderKeyVar(provider string) string {
	return providerKeyVars[strings.ToLower(strings.TrimSpace(provider))]
}

func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: "Configuration file not found: " + path,
		Action:  "Copy example.env to .env or export the variables directly",
	}
}

// ErrMissingAuth reports that no API key is available for provider.
func ErrMissingAuth(provider string) *ConfigError {
	vars := "LLM_API_KEY"
	if v := ProviderKeyVar(provider); v != "" {
		vars += " or " + v
	}
	name := strings.TrimSpace(provider)
	if name == "" {
		name = "the LLM"
	}
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: "No API key for " + name,
		Action:  fmt.Sprintf("Enter your API key on the page, or set %s", vars),
	}
}

func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: "Missing required configuration: " + varName,
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

func ErrInvalidConfig(varName, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("Invalid %s: %s", varName, reason),
		Action:  fmt.Sprintf("Fix %s in your .env file", varName),
	}
}

// IsConfigError unwraps err to its ConfigError, if any.
func IsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetErrorCode returns the ConfigError code in err's chain, or "".
func GetErrorCode(err error) string {
	if ce, ok := IsConfigError(err); ok {
		return ce.Code
	}
	return ""
}
