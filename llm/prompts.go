package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"gopkg.in/yaml.v3"
)

// ContextVariable is the template variable the chains fill with document text.
const ContextVariable = "context"

// ErrInvalidPrompt is returned for a template that does not render {{.context}}.
var ErrInvalidPrompt = errors.New("invalid prompt template")

const defaultSummaryTemplate = `Write a concise summary of the following:


"{{.context}}"


CONCISE SUMMARY:`

// PromptSet holds the Go templates used by the summarization chains.
type PromptSet struct {
	// Stuff summarizes all chunks in one call.
	Stuff string `yaml:"stuff"`

	// Map summarizes a single chunk during map-reduce.
	Map string `yaml:"map"`

	// Combine summarizes the per-chunk summaries.
	Combine string `yaml:"combine"`
}

// DefaultPromptSet returns the classic "concise summary" prompts for every stage.
func DefaultPromptSet() PromptSet {
	return PromptSet{
		Stuff:   defaultSummaryTemplate,
		Map:     defaultSummaryTemplate,
		Combine: defaultSummaryTemplate,
	}
}

// LoadPromptSet reads a YAML file with stuff/map/combine keys. Missing keys keep
// their defaults; an empty path returns DefaultPromptSet.
//
// Example file:
//
//	stuff: |
//	  Summarize in three bullet points:
//	  {{.context}}
func LoadPromptSet(path string) (PromptSet, error) {
	set := DefaultPromptSet()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PromptSet{}, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var override PromptSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return PromptSet{}, fmt.Errorf("failed to parse prompts file %s: %w", path, err)
	}
	if strings.TrimSpace(override.Stuff) != "" {
		set.Stuff = override.Stuff
	}
	if strings.TrimSpace(override.Map) != "" {
		set.Map = override.Map
	}
	if strings.TrimSpace(override.Combine) != "" {
		set.Combine = override.Combine
	}

	if err := set.Validate(); err != nil {
		return PromptSet{}, err
	}
	return set, nil
}

// Validate renders each template with a marker value and checks the marker appears.
func (p PromptSet) Validate() error {
	const marker = "\x00context-marker\x00"
	for name, tmpl := range map[string]string{"stuff": p.Stuff, "map": p.Map, "combine": p.Combine} {
		out, err := newPrompt(tmpl).Format(map[string]any{ContextVariable: marker})
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPrompt, name, err)
		}
		if !strings.Contains(out, marker) {
			return fmt.Errorf("%w: %s template must use {{.%s}}", ErrInvalidPrompt, name, ContextVariable)
		}
	}
	return nil
}

func newPrompt(template string) prompts.PromptTemplate {
	return prompts.NewPromptTemplate(template, []string{ContextVariable})
}
