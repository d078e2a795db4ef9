package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Summarizer is the LLM collaborator: it turns chunks into one summary using
// the given strategy. Implementations must not retry on failure.
type Summarizer interface {
	Summarize(ctx context.Context, docs []Document, strategy Strategy) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, docs []Document, strategy Strategy) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, docs []Document, strategy Strategy) (string, error) {
	return f(ctx, docs, strategy)
}

// ProcessorConfig holds the per-session parameters of the selector.
type ProcessorConfig struct {
	Splitter SplitterConfig

	// WordThreshold is the word count at which MapReduce is selected.
	WordThreshold int

	// ForceStrategy overrides selection when valid. The zero value selects automatically.
	ForceStrategy Strategy
}

// DefaultProcessorConfig returns 1000/100 character chunks and an 800-word threshold.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Splitter:      DefaultSplitterConfig(),
		WordThreshold: DefaultWordThreshold,
	}
}

// Plan is the outcome of chunking and strategy selection, before any LLM call.
type Plan struct {
	Documents []Document
	Strategy  Strategy
	Words     int
	Chars     int

	// Forced is true when the strategy came from ForceStrategy.
	Forced bool

	SplitDuration time.Duration
}

// Chunks returns the number of documents in the plan.
func (p *Plan) Chunks() int { return len(p.Documents) }

// Result contains the outcome of one summarization.
type Result struct {
	Summary  string
	Strategy Strategy
	Words    int
	Chars    int
	Chunks   int

	// Stage timings
	SplitDuration time.Duration
	LLMDuration   time.Duration
	TotalDuration time.Duration
}

// ProgressCallback reports stage transitions: "chunking", "summarizing", "complete".
type ProgressCallback func(stage string, plan *Plan)

// Processor chunks text, selects a strategy once, and delegates to the
// Summarizer. It holds no mutable state and is safe for concurrent use.
//
// Example:
//
//	p, err := NewProcessor(DefaultProcessorConfig(), chainSummarizer)
//	if err != nil {
//	    return err
//	}
//	result, err := p.Process(ctx, text)
//	if errors.Is(err, ErrEmptyInput) {
//	    return nil // nothing to do
//	}
type Processor struct {
	splitter   *RecursiveSplitter
	threshold  int
	force      Strategy
	summarizer Summarizer
	progress   ProgressCallback
}

// NewProcessor validates config and binds the collaborator.
func NewProcessor(config ProcessorConfig, s Summarizer) (*Processor, error) {
	if s == nil {
		return nil, ErrNoSummarizer
	}
	splitter, err := NewRecursiveSplitter(config.Splitter)
	if err != nil {
		return nil, err
	}
	if config.ForceStrategy != 0 && !config.ForceStrategy.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(config.ForceStrategy))
	}
	threshold := config.WordThreshold
	if threshold <= 0 {
		threshold = DefaultWordThreshold
	}
	return &Processor{
		splitter:   splitter,
		threshold:  threshold,
		force:      config.ForceStrategy,
		summarizer: s,
	}, nil
}

// WithProgress returns a copy of p that reports stages to cb.
func (p *Processor) WithProgress(cb ProgressCallback) *Processor {
	cp := *p
	cp.progress = cb
	return &cp
}

// Splitter returns the processor's splitter.
func (p *Processor) Splitter() *RecursiveSplitter { return p.splitter }

// WordThreshold returns the effective threshold.
func (p *Processor) WordThreshold() int { return p.threshold }

// Plan chunks text and selects the strategy without calling the LLM.
// Blank text returns ErrEmptyInput.
func (p *Processor) Plan(text string) (*Plan, error) {
	if IsBlank(text) {
		return nil, ErrEmptyInput
	}
	start := time.Now()

	words := CountWords(text)
	strategy, forced := SelectStrategyForCount(words, p.threshold), false
	if p.force.Valid() {
		strategy, forced = p.force, true
	}

	docs := p.splitter.CreateDocuments(text)
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}

	return &Plan{
		Documents:     docs,
		Strategy:      strategy,
		Words:         words,
		Chars:         CharLength(text),
		Forced:        forced,
		SplitDuration: time.Since(start),
	}, nil
}

// Process plans text and hands the chunks to the Summarizer. Collaborator
// errors are returned wrapped; there is no retry and no partial result.
func (p *Processor) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	p.report("chunking", nil)
	plan, err := p.Plan(text)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, plan, start)
}

// Execute runs the Summarizer for an existing plan. start is used for
// TotalDuration; a zero start means "now".
func (p *Processor) Execute(ctx context.Context, plan *Plan, start time.Time) (*Result, error) {
	if plan == nil || len(plan.Documents) == 0 {
		return nil, ErrEmptyInput
	}
	if start.IsZero() {
		start = time.Now()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.report("summarizing", plan)
	llmStart := time.Now()
	summary, err := p.summarizer.Summarize(ctx, plan.Documents, plan.Strategy)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%s summarization failed: %w", plan.Strategy, err)
	}
	llmDuration := time.Since(llmStart)
	p.report("complete", plan)

	return &Result{
		Summary:       summary,
		Strategy:      plan.Strategy,
		Words:         plan.Words,
		Chars:         plan.Chars,
		Chunks:        len(plan.Documents),
		SplitDuration: plan.SplitDuration,
		LLMDuration:   llmDuration,
		TotalDuration: time.Since(start),
	}, nil
}

func (p *Processor) report(stage string, plan *Plan) {
	if p.progress != nil {
		p.progress(stage, plan)
	}
}
