package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartsummarizer/summarizer"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// ErrNoDocuments is returned when Summarize is called with nothing to summarize.
var ErrNoDocuments = errors.New("no documents to summarize")

// ChainSummarizer implements summarizer.Summarizer with langchaingo's
// stuff and map-reduce document chains.
type ChainSummarizer struct {
	model       llms.Model
	prompts     PromptSet
	maxTokens   int
	temperature float64
}

var _ summarizer.Summarizer = (*ChainSummarizer)(nil)

// ChainOptions tunes the chain calls.
type ChainOptions struct {
	Prompts     PromptSet
	MaxTokens   int
	Temperature float64
}

// NewChainSummarizer binds a model to the summarization chains. Zero-valued
// prompts fall back to DefaultPromptSet.
func NewChainSummarizer(model llms.Model, opts ChainOptions) *ChainSummarizer {
	p := opts.Prompts
	defaults := DefaultPromptSet()
	if p.Stuff == "" {
		p.Stuff = defaults.Stuff
	}
	if p.Map == "" {
		p.Map = defaults.Map
	}
	if p.Combine == "" {
		p.Combine = defaults.Combine
	}
	return &ChainSummarizer{
		model:       model,
		prompts:     p,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// NewSession builds the provider model for cfg and wraps it in a ChainSummarizer.
// It fails with core.ErrMissingAuth before any network call when no key is set.
func NewSession(ctx context.Context, cfg Config, p PromptSet) (*ChainSummarizer, error) {
	model, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return NewChainSummarizer(model, ChainOptions{
		Prompts:     p,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}), nil
}

// Summarize runs the chain matching strategy over docs. Errors from the model
// are returned unchanged apart from wrapping.
func (s *ChainSummarizer) Summarize(ctx context.Context, docs []summarizer.Document, strategy summarizer.Strategy) (string, error) {
	if len(docs) == 0 {
		return "", ErrNoDocuments
	}

	chain, err := s.chainFor(strategy)
	if err != nil {
		return "", err
	}

	out, err := chains.Run(ctx, chain, toSchemaDocuments(docs), s.callOptions()...)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (s *ChainSummarizer) chainFor(strategy summarizer.Strategy) (chains.Chain, error) {
	switch strategy {
	case summarizer.Stuff:
		return chains.NewStuffDocuments(chains.NewLLMChain(s.model, newPrompt(s.prompts.Stuff))), nil
	case summarizer.MapReduce:
		mapChain := chains.NewLLMChain(s.model, newPrompt(s.prompts.Map))
		combine := chains.NewStuffDocuments(chains.NewLLMChain(s.model, newPrompt(s.prompts.Combine)))
		return chains.NewMapReduceDocuments(mapChain, combine), nil
	}
	return nil, fmt.Errorf("%w: %v", summarizer.ErrUnknownStrategy, strategy)
}

func (s *ChainSummarizer) callOptions() []chains.ChainCallOption {
	opts := []chains.ChainCallOption{chains.WithTemperature(s.temperature)}
	if s.maxTokens > 0 {
		opts = append(opts, chains.WithMaxTokens(s.maxTokens))
	}
	return opts
}

func toSchemaDocuments(docs []summarizer.Document) []schema.Document {
	out := make([]schema.Document, len(docs))
	for i, d := range docs {
		out[i] = schema.Document{PageContent: d.PageContent, Metadata: d.Metadata}
	}
	return out
}
