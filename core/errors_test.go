package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError_Message(t *testing.T) {
	withAction := &ConfigError{Code: "X", Message: "Broken", Action: "Fix it"}
	if got, want := withAction.Error(), "Broken. Fix it"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	bare := &ConfigError{Code: "X", Message: "Broken"}
	if got := bare.Error(); got != "Broken" {
		t.Errorf("Error() = %q, want %q", got, "Broken")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		code     string
		mentions []string
	}{
		{"env file", ErrEnvFileMissing(".env"), ErrCodeEnvFileMissing, []string{".env", "example.env"}},
		{"auth groq", ErrMissingAuth("groq"), ErrCodeMissingAuth, []string{"groq", "LLM_API_KEY", "GROQ_API_KEY"}},
		{"auth gemini", ErrMissingAuth(" Gemini "), ErrCodeMissingAuth, []string{"GEMINI_API_KEY"}},
		{"auth unknown", ErrMissingAuth(""), ErrCodeMissingAuth, []string{"the LLM", "LLM_API_KEY"}},
		{"missing", ErrMissingConfig("REDIS_URL"), ErrCodeMissingConfig, []string{"REDIS_URL"}},
		{"invalid", ErrInvalidConfig("CHUNK_OVERLAP", "too large"), ErrCodeInvalidConfig, []string{"CHUNK_OVERLAP", "too large"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			msg := tt.err.Error()
			for _, m := range tt.mentions {
				if !strings.Contains(msg, m) {
					t.Errorf("%q does not mention %q", msg, m)
				}
			}
		})
	}
}

func TestErrMissingAuth_UnknownProviderHasNoFallbackVar(t *testing.T) {
	err := ErrMissingAuth("cohere")
	if !strings.HasSuffix(err.Action, "set LLM_API_KEY") {
		t.Errorf("Action = %q, want only LLM_API_KEY", err.Action)
	}
}

func TestConfigError_Is(t *testing.T) {
	wrapped := fmt.Errorf("session: %w", ErrMissingAuth("openai"))

	if !errors.Is(wrapped, &ConfigError{Code: ErrCodeMissingAuth}) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(wrapped, &ConfigError{Code: ErrCodeInvalidConfig}) {
		t.Error("errors.Is should not match a different code")
	}
	if errors.Is(wrapped, &ConfigError{}) {
		t.Error("an empty code should match nothing")
	}
}

func TestErrorCodeLookup(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"direct", ErrMissingConfig("X"), ErrCodeMissingConfig},
		{"wrapped", fmt.Errorf("load: %w", ErrInvalidConfig("PORT", "bad")), ErrCodeInvalidConfig},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.code {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.code)
			}
			_, ok := IsConfigError(tt.err)
			if ok != (tt.code != "") {
				t.Errorf("IsConfigError() ok = %v", ok)
			}
		})
	}
}

func TestProviderKeyVar(t *testing.T) {
	for provider, want := range map[string]string{
		"groq":      "GROQ_API_KEY",
		"OpenAI":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"gemini":    "GEMINI_API_KEY",
		"cohere":    "",
	} {
		if got := ProviderKeyVar(provider); got != want {
			t.Errorf("ProviderKeyVar(%q) = %q, want %q", provider, got, want)
		}
	}
}
